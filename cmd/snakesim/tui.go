package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/greedysnek/sim"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	winStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const recentGames = 10

type seatTally struct {
	bot    string
	wins   int
	score  int
	errors int
}

type model struct {
	target      int
	gamesPlayed int
	rounds      int64
	startTime   time.Time
	seats       []seatTally
	recent      []string
	updates     <-chan sim.Update
	done        bool
}

func newModel(bots []string, target int, updates <-chan sim.Update) model {
	m := model{
		target:    target,
		startTime: time.Now(),
		updates:   updates,
		seats:     make([]seatTally, len(bots)),
	}
	for i, b := range bots {
		m.seats[i].bot = b
	}
	return m
}

type tickMsg time.Time

type doneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan sim.Update) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.rounds = sim.RoundsPlayed.Load()
		return m, tickCmd()
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case sim.Update:
		m.gamesPlayed++
		res := msg.Result
		for i, seat := range res.Seats {
			if i >= len(m.seats) {
				break
			}
			m.seats[i].score += seat.Score
			m.seats[i].errors += seat.Errors
			if seat.Rank == 1 {
				m.seats[i].wins++
			}
		}
		winner := res.Winner()
		line := fmt.Sprintf("worker %d  seed %-6d rounds %-4d winner seat %d (%s)",
			msg.Worker, res.Seed, res.Rounds, winner, res.Seats[winner].Bot)
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > recentGames {
			m.recent = m.recent[:recentGames]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	elapsed := time.Since(m.startTime)
	gamesPerSec, roundsPerSec := 0.0, 0.0
	if elapsed >= time.Second {
		gamesPerSec = float64(m.gamesPlayed) / elapsed.Seconds()
		roundsPerSec = float64(m.rounds) / elapsed.Seconds()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("snakesim") + "\n\n")
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Games", fmt.Sprintf("%d / %d", m.gamesPlayed, m.target))
	row("Rounds", fmt.Sprintf("%d", m.rounds))
	row("Elapsed", elapsed.Round(time.Second).String())
	row("Games/sec", fmt.Sprintf("%.2f", gamesPerSec))
	row("Rounds/sec", fmt.Sprintf("%.2f", roundsPerSec))

	var seats strings.Builder
	best := -1
	for i, s := range m.seats {
		if best < 0 || s.wins > m.seats[best].wins {
			best = i
		}
	}
	for i, s := range m.seats {
		avg := 0.0
		if m.gamesPlayed > 0 {
			avg = float64(s.score) / float64(m.gamesPlayed)
		}
		line := fmt.Sprintf("seat %d  %-7s wins %-5d avg score %-6.2f errors %d", i, s.bot, s.wins, avg, s.errors)
		if i == best && s.wins > 0 {
			line = winStyle.Render(line)
		}
		seats.WriteString(line)
		if i < len(m.seats)-1 {
			seats.WriteString("\n")
		}
	}
	b.WriteString("\n" + boxStyle.Render(seats.String()) + "\n\n")

	b.WriteString("Recent games:\n")
	for _, g := range m.recent {
		b.WriteString(g + "\n")
	}

	if m.done {
		b.WriteString("\n" + helpStyle.Render("done") + "\n")
	} else {
		b.WriteString("\n" + helpStyle.Render("press q to stop") + "\n")
	}
	return b.String()
}

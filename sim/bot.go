package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/greedysnek/engine"
	"github.com/brensch/greedysnek/game"
	"github.com/brensch/greedysnek/logging"
	"github.com/brensch/greedysnek/pathfind"
	"github.com/brensch/greedysnek/server"
)

const (
	BotEngine = "engine"
	BotGreedy = "greedy"
	BotRemote = "remote"
)

// Bot plays one seat of one game. A bot is created per game and sees every
// round of it in order.
type Bot interface {
	Name() string
	Move(ctx context.Context, snap game.Snapshot) (game.Direction, error)
	Close() error
}

// BotConfig builds bots by kind.
type BotConfig struct {
	Engine    engine.Config
	RemoteURL string
	// Timeout bounds one remote round trip.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c BotConfig) New(ctx context.Context, kind string) (Bot, error) {
	switch kind {
	case BotEngine:
		return NewEngineBot(c.Engine, c.Logger)
	case BotGreedy:
		return GreedyBot{}, nil
	case BotRemote:
		return DialRemote(ctx, c.RemoteURL, c.Timeout)
	default:
		return nil, fmt.Errorf("unknown bot %q", kind)
	}
}

// EngineBot runs a local engine session.
type EngineBot struct {
	session *engine.Session
}

func NewEngineBot(cfg engine.Config, log *slog.Logger) (*EngineBot, error) {
	if log == nil {
		log = logging.Discard()
	}
	s, err := engine.NewSession(cfg, engine.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &EngineBot{session: s}, nil
}

func (b *EngineBot) Name() string { return BotEngine }

func (b *EngineBot) Move(_ context.Context, snap game.Snapshot) (game.Direction, error) {
	return b.session.Decide(snap).Move, nil
}

func (b *EngineBot) Close() error { return nil }

// GreedyBot walks the shortest path to the nearest reachable food, treating
// every other snake as a static barrier.
type GreedyBot struct{}

func (GreedyBot) Name() string { return BotGreedy }

func (GreedyBot) Move(_ context.Context, snap game.Snapshot) (game.Direction, error) {
	if len(snap.Me) == 0 {
		return game.Up, nil
	}
	var barriers []game.Point
	for _, body := range snap.Opponents {
		barriers = append(barriers, body...)
	}
	obstacles := pathfind.Obstacles(snap.N, snap.Me, barriers)
	head := snap.Me[0]

	best, bestDist := game.Up, -1
	for _, f := range snap.Food {
		d := pathfind.Distance(snap.N, head, f, obstacles)
		if d <= 0 || (bestDist >= 0 && d >= bestDist) {
			continue
		}
		if dir, ok := pathfind.NextStep(snap.N, head, f, obstacles); ok {
			best, bestDist = dir, d
		}
	}
	if bestDist < 0 {
		return pathfind.FirstOpen(snap.N, head, obstacles), nil
	}
	return best, nil
}

func (GreedyBot) Close() error { return nil }

// RemoteBot plays through a websocket connection to a running server. The
// connection is the session, so one RemoteBot must serve exactly one game.
type RemoteBot struct {
	conn    *websocket.Conn
	timeout time.Duration
}

var ErrRemote = errors.New("remote bot error")

func DialRemote(ctx context.Context, url string, timeout time.Duration) (*RemoteBot, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no url", ErrRemote)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &RemoteBot{conn: conn, timeout: timeout}, nil
}

func (b *RemoteBot) Name() string { return BotRemote }

type remoteReply struct {
	server.MoveResponse
	Error string `json:"error"`
}

func (b *RemoteBot) Move(ctx context.Context, snap game.Snapshot) (game.Direction, error) {
	deadline := time.Now().Add(b.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	b.conn.SetWriteDeadline(deadline)
	if err := b.conn.WriteJSON(server.WSRequest{Wire: snap.Wire()}); err != nil {
		return game.Up, fmt.Errorf("send round: %w", err)
	}

	b.conn.SetReadDeadline(deadline)
	_, msg, err := b.conn.ReadMessage()
	if err != nil {
		return game.Up, fmt.Errorf("read move: %w", err)
	}
	var reply remoteReply
	if err := json.Unmarshal(msg, &reply); err != nil {
		return game.Up, fmt.Errorf("decode move: %w", err)
	}
	if reply.Error != "" {
		return game.Up, fmt.Errorf("%w: %s", ErrRemote, reply.Error)
	}
	if reply.Move < 0 || reply.Move > int(game.Right) {
		return game.Up, fmt.Errorf("%w: move %d out of range", ErrRemote, reply.Move)
	}
	return game.Direction(reply.Move), nil
}

func (b *RemoteBot) Close() error {
	b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return b.conn.Close()
}

package game

import "testing"

func TestGrid_BoundsAndIndexing(t *testing.T) {
	g := NewGrid(3)
	g.Set(Point{X: 1, Y: 1})
	g.Set(Point{X: 3, Y: 3})
	g.Set(Point{X: 4, Y: 1}) // off board, ignored

	if !g.Blocked(Point{X: 1, Y: 1}) || !g.Blocked(Point{X: 3, Y: 3}) {
		t.Fatalf("expected corners blocked")
	}
	if g.Blocked(Point{X: 2, Y: 2}) {
		t.Fatalf("centre should be free")
	}
	if !g.Blocked(Point{X: 0, Y: 2}) {
		t.Fatalf("off-board cells read as blocked")
	}
	if g.Count() != 2 {
		t.Fatalf("count=%d want=2", g.Count())
	}

	c := g.Clone()
	c.Clear(Point{X: 1, Y: 1})
	if !g.Blocked(Point{X: 1, Y: 1}) {
		t.Fatalf("clone shares storage with original")
	}
}

func TestGrid_ClampsOversizedBoard(t *testing.T) {
	for _, n := range []int{MaxBoardSize + 1, 1 << 32, -3} {
		g := NewGrid(n)
		if len(g.cells) != g.Size()*g.Size() || g.Size() > MaxBoardSize {
			t.Fatalf("n=%d size=%d cells=%d", n, g.Size(), len(g.cells))
		}
		far := Point{X: MaxBoardSize + 1, Y: 1}
		g.Set(far)
		if !g.Blocked(far) || g.Count() != 0 {
			t.Fatalf("n=%d: cell past the clamped edge should read blocked and ignore writes", n)
		}
	}
}

func TestDirection_OffsetsAndOrder(t *testing.T) {
	head := Point{X: 4, Y: 4}
	want := map[Direction]Point{
		Up:    {X: 4, Y: 5},
		Left:  {X: 3, Y: 4},
		Down:  {X: 4, Y: 3},
		Right: {X: 5, Y: 4},
	}
	for i, d := range Directions {
		if int(d) != i {
			t.Fatalf("Directions[%d]=%d", i, d)
		}
		if got := head.Add(d); got != want[d] {
			t.Fatalf("%s: got=%v want=%v", d, got, want[d])
		}
		back, ok := ParseDirection(d.String())
		if !ok || back != d {
			t.Fatalf("ParseDirection(%q)=%v,%v", d.String(), back, ok)
		}
	}
}

package game

// Grid is an n×n occupancy bitmap. Out-of-board cells read as blocked and
// ignore writes.
type Grid struct {
	n     int
	cells []bool
}

// NewGrid clamps n to [0, MaxBoardSize]. Cells past the clamped edge read as
// blocked.
func NewGrid(n int) *Grid {
	n = max(0, min(n, MaxBoardSize))
	return &Grid{n: n, cells: make([]bool, n*n)}
}

// Size returns the board edge length.
func (g *Grid) Size() int { return g.n }

func (g *Grid) index(p Point) (int, bool) {
	if !InBounds(p, g.n) {
		return 0, false
	}
	return (p.Y-1)*g.n + (p.X - 1), true
}

func (g *Grid) Set(p Point) {
	if i, ok := g.index(p); ok {
		g.cells[i] = true
	}
}

// SetAll marks every in-board point of pts.
func (g *Grid) SetAll(pts []Point) {
	for _, p := range pts {
		g.Set(p)
	}
}

func (g *Grid) Clear(p Point) {
	if i, ok := g.index(p); ok {
		g.cells[i] = false
	}
}

func (g *Grid) Blocked(p Point) bool {
	i, ok := g.index(p)
	if !ok {
		return true
	}
	return g.cells[i]
}

// Clone performs a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := &Grid{n: g.n, cells: make([]bool, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// Count returns the number of marked cells.
func (g *Grid) Count() int {
	c := 0
	for _, v := range g.cells {
		if v {
			c++
		}
	}
	return c
}

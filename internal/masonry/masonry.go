// Package masonry lays out tiles of varying height in columns, the way a
// masonry list does, and navigates between them.
package masonry

import "math"

// Size is an item's pixel size. Zero values mean unknown.
type Size struct {
	Width  int
	Height int
}

// Tile is the placed position of one item, in terminal rows.
type Tile struct {
	Index  int
	Column int
	Top    int
	Height int
}

// Bottom is the first row below the tile.
func (t Tile) Bottom() int { return t.Top + t.Height }

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

type Layout struct {
	Columns     int
	ColumnWidth int
	Tiles       []Tile

	byColumn [][]int
	heights  []int
}

// ColumnCount fits as many columns of at least minColumnWidth cells into
// width as allowed, and never fewer than one.
func ColumnCount(width, minColumnWidth, maxColumns int) int {
	if minColumnWidth <= 0 {
		minColumnWidth = 1
	}
	n := width / minColumnWidth
	if maxColumns > 0 && n > maxColumns {
		n = maxColumns
	}
	if n < 1 {
		n = 1
	}
	return n
}

// TileRows converts an item size to a tile height. Terminal cells are
// roughly twice as tall as they are wide.
func TileRows(s Size, columnWidth, minRows, maxRows int) int {
	ratio := 1.0
	if s.Width > 0 && s.Height > 0 {
		ratio = float64(s.Height) / float64(s.Width)
	}
	rows := int(math.Round(float64(columnWidth) * ratio / 2))
	if rows < minRows {
		rows = minRows
	}
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// Build places items in order, each into the currently shortest column
// (leftmost on ties).
func Build(sizes []Size, columns, columnWidth, minRows, maxRows int) *Layout {
	if columns < 1 {
		columns = 1
	}
	l := &Layout{
		Columns:     columns,
		ColumnWidth: columnWidth,
		Tiles:       make([]Tile, 0, len(sizes)),
		byColumn:    make([][]int, columns),
		heights:     make([]int, columns),
	}
	for i, s := range sizes {
		col := l.shortest()
		t := Tile{
			Index:  i,
			Column: col,
			Top:    l.heights[col],
			Height: TileRows(s, columnWidth, minRows, maxRows),
		}
		l.Tiles = append(l.Tiles, t)
		l.byColumn[col] = append(l.byColumn[col], i)
		l.heights[col] = t.Bottom()
	}
	return l
}

func (l *Layout) shortest() int {
	best := 0
	for c := 1; c < len(l.heights); c++ {
		if l.heights[c] < l.heights[best] {
			best = c
		}
	}
	return best
}

// Height is the row count of the tallest column.
func (l *Layout) Height() int {
	h := 0
	for _, ch := range l.heights {
		if ch > h {
			h = ch
		}
	}
	return h
}

// Column returns the item indices in column c, top to bottom.
func (l *Layout) Column(c int) []int {
	if c < 0 || c >= len(l.byColumn) {
		return nil
	}
	return l.byColumn[c]
}

// Visible returns the tiles intersecting rows [top, bottom).
func (l *Layout) Visible(top, bottom int) []Tile {
	var out []Tile
	for _, t := range l.Tiles {
		if t.Top < bottom && t.Bottom() > top {
			out = append(out, t)
		}
	}
	return out
}

// Neighbor returns the item reached from index by moving in dir, or index
// itself when there is nowhere to go. Sideways moves pick the tile in the
// adjacent column with the largest vertical overlap.
func (l *Layout) Neighbor(index int, dir Direction) int {
	if index < 0 || index >= len(l.Tiles) {
		return index
	}
	cur := l.Tiles[index]
	col := l.byColumn[cur.Column]
	pos := position(col, index)

	switch dir {
	case Up:
		if pos > 0 {
			return col[pos-1]
		}
	case Down:
		if pos < len(col)-1 {
			return col[pos+1]
		}
	case Left, Right:
		next := cur.Column - 1
		if dir == Right {
			next = cur.Column + 1
		}
		if next < 0 || next >= l.Columns || len(l.byColumn[next]) == 0 {
			return index
		}
		return l.closest(cur, l.byColumn[next])
	}
	return index
}

func (l *Layout) closest(cur Tile, candidates []int) int {
	best, bestOverlap, bestDist := candidates[0], -1, math.MaxInt
	mid := cur.Top + cur.Height/2
	for _, i := range candidates {
		t := l.Tiles[i]
		overlap := max(0, min(cur.Bottom(), t.Bottom())-max(cur.Top, t.Top))
		dist := abs(t.Top + t.Height/2 - mid)
		if overlap > bestOverlap || (overlap == bestOverlap && dist < bestDist) {
			best, bestOverlap, bestDist = i, overlap, dist
		}
	}
	return best
}

// NearEnd reports whether fewer than threshold items follow index.
func (l *Layout) NearEnd(index, threshold int) bool {
	return len(l.Tiles)-1-index < threshold
}

func position(col []int, index int) int {
	for p, i := range col {
		if i == index {
			return p
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

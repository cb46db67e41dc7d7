package core

// Point is an integer pixel coordinate. Y grows downward.
type Point struct {
	X, Y int
}

// Rect is a half-open pixel rectangle [MinX, MaxX) x [MinY, MaxY). The zero
// value is empty.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// RectXYWH builds a rectangle from an origin and a size.
func RectXYWH(x, y, w, h int) Rect {
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// Dx returns the width.
func (r Rect) Dx() int {
	if r.Empty() {
		return 0
	}
	return r.MaxX - r.MinX
}

// Dy returns the height.
func (r Rect) Dy() int {
	if r.Empty() {
		return 0
	}
	return r.MaxY - r.MinY
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Add grows the rectangle to include the cell (x, y).
func (r Rect) Add(x, y int) Rect {
	if r.Empty() {
		return Rect{MinX: x, MinY: y, MaxX: x + 1, MaxY: y + 1}
	}
	if x < r.MinX {
		r.MinX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if x >= r.MaxX {
		r.MaxX = x + 1
	}
	if y >= r.MaxY {
		r.MaxY = y + 1
	}
	return r
}

// Union returns the bounding box of both rectangles.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Expand grows a non-empty rectangle by dx horizontally and dy vertically.
func (r Rect) Expand(dx, dy int) Rect {
	if r.Empty() {
		return r
	}
	return Rect{MinX: r.MinX - dx, MinY: r.MinY - dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// Clip intersects the rectangle with o.
func (r Rect) Clip(o Rect) Rect {
	c := Rect{
		MinX: max(r.MinX, o.MinX),
		MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX),
		MaxY: min(r.MaxY, o.MaxY),
	}
	if c.Empty() {
		return Rect{}
	}
	return c
}

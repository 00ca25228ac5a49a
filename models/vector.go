package models

import "math"

// Vec is a 2D point or displacement
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o
func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies both components by s
func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Div divides both components by d. Division by zero yields the zero vector.
func (v Vec) Div(d float64) Vec {
	if d == 0 {
		return Vec{}
	}
	return Vec{X: v.X / d, Y: v.Y / d}
}

// Len returns the euclidean length
func (v Vec) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Dist returns the distance between v and o
func (v Vec) Dist(o Vec) float64 {
	return v.Sub(o).Len()
}

// Clamp limits each component to [-max, max]
func (v Vec) Clamp(max float64) Vec {
	return Vec{X: clamp(v.X, -max, max), Y: clamp(v.Y, -max, max)}
}

// IsFinite reports whether neither component is NaN or infinite
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(val, hi))
}

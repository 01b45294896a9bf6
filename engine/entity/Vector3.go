package entity

import (
	"fmt"
	"math"
)

// Coord is the type of entity position coordinates (x, y, z)
type Coord float32

// Vector3 is type of entity position
type Vector3 struct {
	X Coord
	Y Coord
	Z Coord
}

func (p Vector3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

// DistanceTo calculates distance between two positions
func (p Vector3) DistanceTo(o Vector3) Coord {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return Coord(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// Sub calculates Vector3 p - Vector3 o
func (p Vector3) Sub(o Vector3) Vector3 {
	return Vector3{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Add calculates Vector3 p + Vector3 o
func (p Vector3) Add(o Vector3) Vector3 {
	return Vector3{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Mul calculates Vector3 p * m
func (p Vector3) Mul(m Coord) Vector3 {
	return Vector3{p.X * m, p.Y * m, p.Z * m}
}

// Length returns the length of the vector
func (p Vector3) Length() Coord {
	return Coord(math.Sqrt(float64(p.X*p.X + p.Y*p.Y + p.Z*p.Z)))
}

// IsZero returns if the vector is the zero vector
func (p Vector3) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Normalize normalizes the vector to length 1 in place
func (p *Vector3) Normalize() {
	d := p.Length()
	if d == 0 {
		return
	}
	p.X /= d
	p.Y /= d
	p.Z /= d
}

// Normalized returns the normalized copy of the vector
func (p Vector3) Normalized() Vector3 {
	p.Normalize()
	return p
}

// Quaternion is type of entity rotation
type Quaternion struct {
	X Coord
	Y Coord
	Z Coord
	W Coord
}

// IdentityQuaternion returns the identity rotation
func IdentityQuaternion() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f, %.2f)", q.X, q.Y, q.Z, q.W)
}

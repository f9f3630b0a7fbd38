package geometry

import (
	"errors"
	"math"
)

// ErrSingular is returned when a transform cannot be solved or inverted.
var ErrSingular = errors.New("singular transform")

const singularEps = 1e-12

// Perspective is a 3x3 homography mapping source to destination coordinates.
type Perspective [3][3]float64

// Identity returns the identity homography.
func Identity() Perspective {
	return Perspective{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// PerspectiveTransform derives the unique homography mapping src[i] to
// dst[i] for all four pairs.
//
// The eight unknowns are solved from
//
//	x' = (a*x + b*y + c) / (g*x + h*y + 1)
//	y' = (d*x + e*y + f) / (g*x + h*y + 1)
//
// with Gaussian elimination and partial pivoting. Three collinear source or
// destination points make the system singular and return ErrSingular.
func PerspectiveTransform(src, dst [4]Point) (Perspective, error) {
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	sol, err := solve8(m)
	if err != nil {
		return Perspective{}, err
	}
	return Perspective{
		{sol[0], sol[1], sol[2]},
		{sol[3], sol[4], sol[5]},
		{sol[6], sol[7], 1},
	}, nil
}

func solve8(m [8][9]float64) ([8]float64, error) {
	const n = 8
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < singularEps {
			return [8]float64{}, ErrSingular
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	var x [8]float64
	for r := n - 1; r >= 0; r-- {
		sum := m[r][n]
		for c := r + 1; c < n; c++ {
			sum -= m[r][c] * x[c]
		}
		x[r] = sum / m[r][r]
	}
	return x, nil
}

// Apply maps p through the homography. ok is false when p maps to infinity.
func (m Perspective) Apply(p Point) (q Point, ok bool) {
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if math.Abs(w) < singularEps {
		return Point{}, false
	}
	return Point{
		X: (m[0][0]*p.X + m[0][1]*p.Y + m[0][2]) / w,
		Y: (m[1][0]*p.X + m[1][1]*p.Y + m[1][2]) / w,
	}, true
}

// Invert returns the inverse homography.
func (m Perspective) Invert() (Perspective, error) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	det := a*A + b*B + c*C
	if math.Abs(det) < singularEps {
		return Perspective{}, ErrSingular
	}
	inv := 1 / det
	return Perspective{
		{A * inv, -(b*i - c*h) * inv, (b*f - c*e) * inv},
		{B * inv, (a*i - c*g) * inv, -(a*f - c*d) * inv},
		{C * inv, -(a*h - b*g) * inv, (a*e - b*d) * inv},
	}, nil
}

// Affine is a 2x3 matrix mapping source to destination coordinates.
type Affine [2][3]float64

// RotationMatrix2D builds the affine transform that rotates by angle degrees
// around center and scales by scale:
//
//	[  a  b  (1-a)*cx - b*cy ]
//	[ -b  a  b*cx + (1-a)*cy ]
//
// where a = scale*cos(angle) and b = scale*sin(angle).
func RotationMatrix2D(center Point, angle, scale float64) Affine {
	rad := angle * math.Pi / 180
	a := scale * math.Cos(rad)
	b := scale * math.Sin(rad)
	return Affine{
		{a, b, (1-a)*center.X - b*center.Y},
		{-b, a, b*center.X + (1-a)*center.Y},
	}
}

// Apply maps p through the affine transform.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2],
	}
}

// Invert returns the inverse affine transform.
func (m Affine) Invert() (Affine, error) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if math.Abs(det) < singularEps {
		return Affine{}, ErrSingular
	}
	inv := 1 / det
	a := m[1][1] * inv
	b := -m[0][1] * inv
	c := -m[1][0] * inv
	d := m[0][0] * inv
	return Affine{
		{a, b, -(a*m[0][2] + b*m[1][2])},
		{c, d, -(c*m[0][2] + d*m[1][2])},
	}, nil
}

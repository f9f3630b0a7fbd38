package detection

import (
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// Mode selects which borders FindContours reports.
type Mode int

const (
	// ListAll reports every outer and hole border with parent links.
	ListAll Mode = iota
	// External reports only borders that are not enclosed by any other
	// foreground region.
	External
)

func (m Mode) String() string {
	switch m {
	case ListAll:
		return "list"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Contour is one traced border of a binary image.
type Contour struct {
	// Points are the border pixels in tracing order with runs of equal
	// direction compressed to their end points.
	Points []geometry.Point `json:"points"`

	// Parent is the index of the enclosing contour in the same result, or -1
	// when the border sits directly inside the image frame.
	Parent int `json:"parent"`

	// Hole is true for the inner border of a foreground region.
	Hole bool `json:"hole"`
}

// Neighbour offsets as (dy, dx), counter-clockwise on screen starting east.
var (
	dirDY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
	dirDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
)

// border is the bookkeeping Suzuki-Abe keeps per sequential border number.
type border struct {
	hole   bool
	parent int // border number of the parent
	points []geometry.Point
}

// FindContours traces the borders of a single-channel binary image, where any
// non-zero sample is foreground.
//
// # Algorithm (Suzuki and Abe, 1985)
//
// The image is scanned in raster order. A foreground pixel with a background
// pixel to its left starts an outer border; a foreground pixel with background
// to its right starts a hole border. Each border is followed with an 8-neighbour
// search and labelled with a sequential border number so it is traced only
// once. The last border number seen on the current row decides the parent:
//
//	new outer, last outer -> parent of last
//	new outer, last hole  -> last
//	new hole,  last outer -> last
//	new hole,  last hole  -> parent of last
//
// Contours are returned in discovery order. An image with no foreground
// yields an empty slice.
func FindContours(binary *raster.Buffer, mode Mode) ([]Contour, error) {
	if err := binary.Validate(); err != nil {
		return nil, err
	}
	if binary.Channels != 1 {
		return nil, fmt.Errorf("%w: contour tracing expects 1 channel, got %d", raster.ErrInvalidBuffer, binary.Channels)
	}

	// Pad by one so neighbour lookups never leave the grid.
	w, h := binary.Width+2, binary.Height+2
	f := make([]int32, w*h)
	for y := 0; y < binary.Height; y++ {
		row := binary.Samples[y*binary.Width : (y+1)*binary.Width]
		for x, v := range row {
			if v != 0 {
				f[(y+1)*w+x+1] = 1
			}
		}
	}

	var offsets [8]int
	for d := range offsets {
		offsets[d] = dirDY[d]*w + dirDX[d]
	}

	// Border number 1 is the frame, treated as a hole border without parent.
	borders := []border{{}, {hole: true, parent: 0}}
	nbd := int32(1)

	for i := 1; i < h-1; i++ {
		lnbd := int32(1)
		for j := 1; j < w-1; j++ {
			p := i*w + j
			fij := f[p]
			if fij == 0 {
				continue
			}

			var from int
			var hole bool
			switch {
			case fij == 1 && f[p-1] == 0:
				from = p - 1
			case fij >= 1 && f[p+1] == 0:
				from = p + 1
				hole = true
				if fij > 1 {
					lnbd = fij
				}
			default:
				if fij != 1 {
					lnbd = abs32(fij)
				}
				continue
			}

			nbd++
			last := borders[lnbd]
			parent := int(lnbd)
			if hole == last.hole {
				parent = last.parent
			}

			points := follow(f, w, offsets, p, from, nbd)
			borders = append(borders, border{hole: hole, parent: parent, points: points})

			if f[p] != 1 {
				lnbd = abs32(f[p])
			}
		}
	}

	return collect(borders, mode), nil
}

// follow traces one border starting at p, whose background neighbour at the
// start is from, labelling visited pixels with nbd. It returns the
// compressed point sequence in image coordinates.
func follow(f []int32, w int, offsets [8]int, p, from int, nbd int32) []geometry.Point {
	dirOf := func(center, q int) int {
		delta := q - center
		for d, o := range offsets {
			if o == delta {
				return d
			}
		}
		return 0
	}

	// Clockwise search from the start neighbour for any foreground pixel.
	start := dirOf(p, from)
	p1 := -1
	for k := 0; k < 8; k++ {
		q := p + offsets[(start-k+8)%8]
		if f[q] != 0 {
			p1 = q
			break
		}
	}
	if p1 < 0 {
		f[p] = -nbd
		return []geometry.Point{toPoint(p, w)}
	}

	var trail []int
	p2, p3 := p1, p
	for {
		trail = append(trail, p3)

		// Counter-clockwise search starting just after p2.
		d2 := dirOf(p3, p2)
		eastZero := false
		p4 := -1
		for k := 1; k <= 8; k++ {
			d := (d2 + k) % 8
			q := p3 + offsets[d]
			if f[q] != 0 {
				p4 = q
				break
			}
			if d == 0 {
				eastZero = true
			}
		}

		switch {
		case eastZero:
			f[p3] = -nbd
		case f[p3] == 1:
			f[p3] = nbd
		}

		if p4 == p && p3 == p1 {
			break
		}
		p2, p3 = p3, p4
	}

	return compress(trail, w)
}

// compress keeps only the pixels where the tracing direction changes.
func compress(trail []int, w int) []geometry.Point {
	n := len(trail)
	if n <= 2 {
		out := make([]geometry.Point, n)
		for i, q := range trail {
			out[i] = toPoint(q, w)
		}
		return out
	}

	out := make([]geometry.Point, 0, n/4+4)
	for i, q := range trail {
		prev := trail[(i-1+n)%n]
		next := trail[(i+1)%n]
		if q-prev != next-q {
			out = append(out, toPoint(q, w))
		}
	}
	if len(out) == 0 {
		out = append(out, toPoint(trail[0], w))
	}
	return out
}

// collect converts the traced borders into the public result, dropping the
// frame and applying the retrieval mode.
func collect(borders []border, mode Mode) []Contour {
	index := make([]int, len(borders))
	for i := range index {
		index[i] = -1
	}

	contours := make([]Contour, 0, len(borders)-2)
	for nb := 2; nb < len(borders); nb++ {
		b := borders[nb]
		if mode == External && (b.hole || b.parent != 1) {
			continue
		}
		parent := -1
		if mode == ListAll && b.parent > 1 {
			parent = index[b.parent]
		}
		index[nb] = len(contours)
		contours = append(contours, Contour{Points: b.points, Parent: parent, Hole: b.hole})
	}
	return contours
}

func toPoint(p, w int) geometry.Point {
	return geometry.Point{X: float64(p%w - 1), Y: float64(p/w - 1)}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

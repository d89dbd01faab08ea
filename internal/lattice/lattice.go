// Package lattice holds the static discrete-velocity tables that every
// other component in this module treats as read-only input: the set of
// lattice vectors, their weights, the inverse-direction map, and the
// sound-speed constant. There is no build step and no error path: a
// Descriptor is a value, not a resource.
package lattice

// Vec3 is a small integer 3-vector: lattice velocity components (each
// in {-1, 0, 1}), and the site position iolet.Iolet.MomentumAt takes.
type Vec3 struct {
	X, Y, Z int8
}

// Add returns the componentwise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Descriptor is a static lattice-Boltzmann velocity set.
type Descriptor struct {
	Name string

	// C holds the Q discrete velocity vectors, C[0] is the rest vector.
	C []Vec3

	// W holds the Q weights; they sum to 1.
	W []float64

	// Inverse[q] is the index i such that C[i] == -C[q].
	Inverse []int

	// Cs2 is the sound-speed-squared constant (1/3 for these lattices).
	Cs2 float64
}

// Q returns the number of discrete velocities, including the rest vector.
func (d *Descriptor) Q() int { return len(d.C) }

func inverseOf(c []Vec3) []int {
	inv := make([]int, len(c))
	for i, v := range c {
		want := Vec3{-v.X, -v.Y, -v.Z}
		found := -1
		for j, u := range c {
			if u == want {
				found = j
				break
			}
		}
		if found < 0 {
			panic("lattice: no inverse direction for vector " + string(rune(i)))
		}
		inv[i] = found
	}
	return inv
}

// D3Q19 is the workhorse three-dimensional, nineteen-velocity lattice used
// by the reference hemodynamics engine this module descends from.
var D3Q19 = buildD3Q19()

func buildD3Q19() *Descriptor {
	c := []Vec3{
		{0, 0, 0},
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
		{1, 1, 0}, {-1, -1, 0},
		{1, -1, 0}, {-1, 1, 0},
		{1, 0, 1}, {-1, 0, -1},
		{1, 0, -1}, {-1, 0, 1},
		{0, 1, 1}, {0, -1, -1},
		{0, 1, -1}, {0, -1, 1},
	}
	w := make([]float64, 19)
	w[0] = 1.0 / 3.0
	for q := 1; q <= 6; q++ {
		w[q] = 1.0 / 18.0
	}
	for q := 7; q <= 18; q++ {
		w[q] = 1.0 / 36.0
	}
	return &Descriptor{
		Name:    "D3Q19",
		C:       c,
		W:       w,
		Inverse: inverseOf(c),
		Cs2:     1.0 / 3.0,
	}
}

// D3Q27 is the higher-order twenty-seven-velocity lattice, offered as an
// alternative for callers that need the extra corner directions.
var D3Q27 = buildD3Q27()

func buildD3Q27() *Descriptor {
	var c []Vec3
	var w []float64
	for x := int8(-1); x <= 1; x++ {
		for y := int8(-1); y <= 1; y++ {
			for z := int8(-1); z <= 1; z++ {
				c = append(c, Vec3{x, y, z})
				n := abs(x) + abs(y) + abs(z)
				switch n {
				case 0:
					w = append(w, 8.0/27.0)
				case 1:
					w = append(w, 2.0/27.0)
				case 2:
					w = append(w, 1.0/54.0)
				case 3:
					w = append(w, 1.0/216.0)
				}
			}
		}
	}
	// Put the rest vector first, matching the D3Q19 convention.
	for i, v := range c {
		if v == (Vec3{0, 0, 0}) && i != 0 {
			c[0], c[i] = c[i], c[0]
			w[0], w[i] = w[i], w[0]
			break
		}
	}
	return &Descriptor{
		Name:    "D3Q27",
		C:       c,
		W:       w,
		Inverse: inverseOf(c),
		Cs2:     1.0 / 3.0,
	}
}

func abs(x int8) int8 {
	if x < 0 {
		return -x
	}
	return x
}

// ByName returns one of the built-in descriptors, or nil if the name is
// not recognised.
func ByName(name string) *Descriptor {
	switch name {
	case "D3Q19":
		return D3Q19
	case "D3Q27":
		return D3Q27
	default:
		return nil
	}
}

// Package octree implements the sparse spatial index over non-empty
// blocks: compact storage keyed by BlockCoord, with a dense leaf index in
// [0, BlockCount) assigned in breadth-first, octant-sorted traversal
// order so that every worker derives identical indices from an identical
// set of non-empty block coordinates.
package octree

import (
	"errors"
	"sort"

	"hemolattice/internal/domainerr"
)

// BlockCoord identifies a block in the universe grid by its three
// 16-bit-unsigned axis components.
type BlockCoord struct {
	X, Y, Z uint16
}

// ErrEmptyBlock is returned by GetLeaf for a coordinate that is within
// the universe but names a block with no storage (all-solid).
var ErrEmptyBlock = errors.New("octree: block has no storage (empty)")

// Leaf is one non-empty block's entry in the dense traversal order.
type Leaf struct {
	coord BlockCoord
	index int
}

// Coords returns the block coordinate this leaf represents.
func (l Leaf) Coords() BlockCoord { return l.coord }

// Index returns this leaf's dense position, monotone in [0, BlockCount).
func (l Leaf) Index() int { return l.index }

// Tree is the sparse octree over the set of non-empty blocks.
type Tree struct {
	blockCounts [3]uint16
	leaves      []BlockCoord   // in BFS discovery order; leaves[i].index == i
	indexOf     map[BlockCoord]int
}

// node is one cell of the (implicit) power-of-two cube octree used only
// during construction; it is never retained.
type node struct {
	lo   [3]uint16
	size uint16
}

// Build constructs the octree from the set of non-empty block
// coordinates. blockCounts gives the extent of the universe grid along
// each axis (the invariant "each component < block_counts[axis]" bounds
// valid BlockCoords).
func Build(blockCounts [3]uint16, present []BlockCoord) *Tree {
	t := &Tree{
		blockCounts: blockCounts,
		indexOf:     make(map[BlockCoord]int, len(present)),
	}
	if len(present) == 0 {
		return t
	}

	side := nextPow2(maxDim(blockCounts))

	presentSet := make(map[BlockCoord]struct{}, len(present))
	for _, p := range present {
		presentSet[p] = struct{}{}
	}
	// Sorted copy purely so nodeHasPresent's linear scans are cache
	// friendly and construction is deterministic irrespective of the
	// order `present` was supplied in.
	sortedPresent := make([]BlockCoord, len(present))
	copy(sortedPresent, present)
	sort.Slice(sortedPresent, func(i, j int) bool {
		return less(sortedPresent[i], sortedPresent[j])
	})

	queue := []node{{lo: [3]uint16{0, 0, 0}, size: side}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.size == 1 {
			bc := BlockCoord{n.lo[0], n.lo[1], n.lo[2]}
			if _, ok := presentSet[bc]; ok {
				idx := len(t.leaves)
				t.leaves = append(t.leaves, bc)
				t.indexOf[bc] = idx
			}
			continue
		}

		half := n.size / 2
		// Fixed octant visitation order: x-major, then y, then z. This,
		// combined with FIFO queueing, is what makes the traversal
		// breadth-first and octant-sorted, and therefore deterministic
		// across identical inputs.
		for _, dx := range [2]uint16{0, half} {
			for _, dy := range [2]uint16{0, half} {
				for _, dz := range [2]uint16{0, half} {
					c := node{lo: [3]uint16{n.lo[0] + dx, n.lo[1] + dy, n.lo[2] + dz}, size: half}
					if nodeHasPresent(c, sortedPresent) {
						queue = append(queue, c)
					}
				}
			}
		}
	}
	return t
}

func nodeHasPresent(n node, sortedPresent []BlockCoord) bool {
	hi := [3]uint16{n.lo[0] + n.size, n.lo[1] + n.size, n.lo[2] + n.size}
	for _, p := range sortedPresent {
		if p.X >= n.lo[0] && p.X < hi[0] &&
			p.Y >= n.lo[1] && p.Y < hi[1] &&
			p.Z >= n.lo[2] && p.Z < hi[2] {
			return true
		}
	}
	return false
}

func less(a, b BlockCoord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func maxDim(bc [3]uint16) uint16 {
	m := bc[0]
	if bc[1] > m {
		m = bc[1]
	}
	if bc[2] > m {
		m = bc[2]
	}
	if m == 0 {
		return 1
	}
	return m
}

func nextPow2(n uint16) uint16 {
	p := uint16(1)
	for p < n {
		p <<= 1
	}
	return p
}

// BlockCount returns the number of non-empty blocks.
func (t *Tree) BlockCount() int { return len(t.leaves) }

// InUniverse reports whether bc's components are within blockCounts,
// irrespective of whether the block is present.
func (t *Tree) InUniverse(bc BlockCoord) bool {
	return bc.X < t.blockCounts[0] && bc.Y < t.blockCounts[1] && bc.Z < t.blockCounts[2]
}

// GetLeaf returns the leaf for a non-empty block coordinate. It fails
// with a domainerr.OutOfDomain error if bc lies outside the universe, or
// with ErrEmptyBlock if bc is within the universe but names a block with
// no storage.
func (t *Tree) GetLeaf(bc BlockCoord) (Leaf, error) {
	if !t.InUniverse(bc) {
		return Leaf{}, domainerr.New(domainerr.OutOfDomain, -1, [3]uint16{bc.X, bc.Y, bc.Z}, -1, -1,
			"block coordinate outside universe", nil)
	}
	idx, ok := t.indexOf[bc]
	if !ok {
		return Leaf{}, ErrEmptyBlock
	}
	return Leaf{coord: bc, index: idx}, nil
}

// IterLeaves calls fn for every leaf in dense index order, stopping early
// if fn returns false.
func (t *Tree) IterLeaves(fn func(Leaf) bool) {
	for i, bc := range t.leaves {
		if !fn(Leaf{coord: bc, index: i}) {
			return
		}
	}
}

// Leaves returns a copy of all leaves in dense index order.
func (t *Tree) Leaves() []Leaf {
	out := make([]Leaf, len(t.leaves))
	for i, bc := range t.leaves {
		out[i] = Leaf{coord: bc, index: i}
	}
	return out
}

package geomio

import "hemolattice/internal/octree"

// BlockAndLocalCoord decomposes a global site coordinate into its block
// coordinate and the local coordinate within that block. ok is false if
// global lies outside the block-count bounds (any component negative or
// past BlockCounts*BlockSize); callers must not index Blocks/Sites in
// that case.
func (g *GeometryReadResult) BlockAndLocalCoord(global [3]int64) (octree.BlockCoord, [3]uint16, bool) {
	b := int64(g.BlockSize)
	if global[0] < 0 || global[1] < 0 || global[2] < 0 {
		return octree.BlockCoord{}, [3]uint16{}, false
	}
	bx, by, bz := global[0]/b, global[1]/b, global[2]/b
	if bx >= int64(g.BlockCounts[0]) || by >= int64(g.BlockCounts[1]) || bz >= int64(g.BlockCounts[2]) {
		return octree.BlockCoord{}, [3]uint16{}, false
	}
	local := [3]uint16{
		uint16(global[0] - bx*b),
		uint16(global[1] - by*b),
		uint16(global[2] - bz*b),
	}
	return octree.BlockCoord{X: uint16(bx), Y: uint16(by), Z: uint16(bz)}, local, true
}

// LookupOwner answers the neighbour question every phase of the domain
// builder needs: given a global coordinate, is it solid or out of
// universe (in which case any link to it maps to the rubbish slot), or
// which rank owns it.
//
// This module gives every simulated rank full in-process visibility of
// the read geometry, so the answer is always exact; a parallel-I/O front
// end that only loads its own rank's slice would need the distributed
// directory for this instead, which is a genuine capability gap this
// module does not need to reproduce.
func (g *GeometryReadResult) LookupOwner(tree *octree.Tree, global [3]int64) (rank int32, solidOrOutside bool) {
	bc, local, ok := g.BlockAndLocalCoord(global)
	if !ok || !tree.InUniverse(bc) {
		return 0, true
	}
	block := g.Blocks[g.BlockGmyIndex(bc)]
	if block.Empty() {
		return 0, true
	}
	site := block.Sites[g.SiteGmyIndex(local)]
	if site.TargetProcessor == TargetSolid {
		return 0, true
	}
	return site.TargetProcessor, false
}

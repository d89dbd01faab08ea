// Package geomio defines the GeometryReadResult input contract (§6 of the
// specification) and the readers that produce one: a validated YAML/JSON
// front end for hand-written or small test geometries, and a set of
// synthetic builders used to construct the S1-S6 scenario geometries
// without hand-writing files.
//
// The excluded production preprocessor (mesh generation, the XML
// configuration reader) is out of scope; this package only has to produce
// the struct shape §6 specifies.
package geomio

import (
	"fmt"

	"hemolattice/internal/octree"
)

// SiteType is the per-site collision-type enum. WALL, INLET, and OUTLET
// are bit flags so INLET|WALL and OUTLET|WALL compose naturally; SOLID is
// a fourth flag that never combines with the others.
type SiteType uint32

const (
	FLUID  SiteType = 0
	WALL   SiteType = 1 << 0
	INLET  SiteType = 1 << 1
	OUTLET SiteType = 1 << 2
	SOLID  SiteType = 1 << 3
)

// CollisionBucket returns the l in {0..5} this site type maps to, and
// whether the type is a valid fluid classification at all (SOLID is not).
func (t SiteType) CollisionBucket() (int, bool) {
	switch t {
	case FLUID:
		return 0, true
	case WALL:
		return 1, true
	case INLET:
		return 2, true
	case OUTLET:
		return 3, true
	case INLET | WALL:
		return 4, true
	case OUTLET | WALL:
		return 5, true
	default:
		return -1, false
	}
}

// CollisionTypes is the number of collision buckets (mid-domain and
// domain-edge each have this many).
const CollisionTypes = 6

// TargetSolid is the sentinel target-processor value meaning "solid or
// no block here", matching SITE_OR_BLOCK_SOLID in the original engine.
const TargetSolid int32 = -1

// LinkReadResult is per-non-rest-direction wall/iolet cut information, as
// read from the geometry.
type LinkReadResult struct {
	CutType          CutType
	DistanceToWall   float64 // in [0,1], fraction of the lattice vector length
	HasWallIntersect bool
}

// CutType classifies what a link's cut distance refers to.
type CutType int

const (
	CutNone CutType = iota
	CutWall
	CutInlet
	CutOutlet
)

// SiteReadResult is one B^3 slot's read data.
type SiteReadResult struct {
	TargetProcessor int32 // rank, or TargetSolid
	Type            SiteType
	WallIntersection uint32
	IoletIntersection uint32
	IoletID          int32 // -1 if none
	WallNormalAvailable bool
	WallNormal       [3]float32
	Links            []LinkReadResult // length Q-1, indexed by direction-1
}

// IsWall reports whether this site's WALL bit is set, matching
// SiteData::IsWall in the original engine.
func (s SiteReadResult) IsWall() bool { return s.Type&WALL != 0 }

// IsSolid reports whether this site is SOLID, matching SiteData::IsSolid.
func (s SiteReadResult) IsSolid() bool { return s.Type&SOLID != 0 }

// GetCollisionType returns the l in {0..5} this site's type maps to,
// matching SiteData::GetCollisionType. It panics if the type is not a
// valid fluid classification (SOLID); callers that may see solid sites
// should check IsSolid first.
func (s SiteReadResult) GetCollisionType() int {
	bucket, ok := s.Type.CollisionBucket()
	if !ok {
		panic(fmt.Sprintf("geomio: GetCollisionType called on non-fluid site type %v", s.Type))
	}
	return bucket
}

// BlockReadResult is one block's read data: either empty (nil Sites,
// meaning all-solid, no storage) or present (len(Sites) == B^3).
type BlockReadResult struct {
	Sites []SiteReadResult
}

func (b BlockReadResult) Empty() bool { return len(b.Sites) == 0 }

// GeometryReadResult is the full input contract (§6): block dimensions,
// block side length, and per-block site data.
type GeometryReadResult struct {
	BlockCounts [3]uint16
	BlockSize   uint16
	Blocks      []BlockReadResult // len == Bx*By*Bz, indexed by block Gmy index
}

// BlockGmyIndex returns the flat index of a block coordinate into
// Blocks, using the same x-major ordering the rest of the module assumes.
func (g *GeometryReadResult) BlockGmyIndex(bc octree.BlockCoord) int {
	return int(bc.X)*int(g.BlockCounts[1])*int(g.BlockCounts[2]) +
		int(bc.Y)*int(g.BlockCounts[2]) +
		int(bc.Z)
}

// SitesPerBlock returns B^3.
func (g *GeometryReadResult) SitesPerBlock() int {
	return int(g.BlockSize) * int(g.BlockSize) * int(g.BlockSize)
}

// SiteGmyIndex returns the flat index of a local site coordinate
// (each component in [0,BlockSize)) within a block's Sites slice.
func (g *GeometryReadResult) SiteGmyIndex(local [3]uint16) int {
	b := int(g.BlockSize)
	return int(local[0])*b*b + int(local[1])*b + int(local[2])
}

// NonEmptyBlockCoords returns the coordinates of every block with
// storage, in no particular order (the octree imposes the deterministic
// order downstream).
func (g *GeometryReadResult) NonEmptyBlockCoords() []octree.BlockCoord {
	var out []octree.BlockCoord
	bx, by, bz := g.BlockCounts[0], g.BlockCounts[1], g.BlockCounts[2]
	for x := uint16(0); x < bx; x++ {
		for y := uint16(0); y < by; y++ {
			for z := uint16(0); z < bz; z++ {
				bc := octree.BlockCoord{X: x, Y: y, Z: z}
				if !g.Blocks[g.BlockGmyIndex(bc)].Empty() {
					out = append(out, bc)
				}
			}
		}
	}
	return out
}

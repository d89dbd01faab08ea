package geomio

import (
	"hemolattice/internal/lattice"
	"hemolattice/internal/octree"
)

// The Synthetic builders construct the S1-S6 scenario geometries from
// spec §8 directly in Go, without needing hand-written YAML fixtures.
// Each returns a GeometryReadResult ready to feed into octree.Build and
// catalogue.Build for the rank(s) named in the scenario.

func emptyLinks(desc *lattice.Descriptor) []LinkReadResult {
	return make([]LinkReadResult, desc.Q()-1)
}

// SyntheticS1 is a single 1x1x1 block, single rank, 2x2x2 fluid cube: 8
// fluid sites, no cross-rank edges.
func SyntheticS1(desc *lattice.Descriptor) *GeometryReadResult {
	sites := make([]SiteReadResult, 8)
	for i := range sites {
		sites[i] = SiteReadResult{TargetProcessor: 0, Type: FLUID, IoletID: -1, Links: emptyLinks(desc)}
	}
	return &GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 1},
		BlockSize:   2,
		Blocks:      []BlockReadResult{{Sites: sites}},
	}
}

// SyntheticS2 is two 1x1x1 blocks side by side along x, one rank each,
// one fluid site per rank adjacent across the block boundary.
func SyntheticS2(desc *lattice.Descriptor) *GeometryReadResult {
	mk := func(rank int32) []SiteReadResult {
		return []SiteReadResult{{TargetProcessor: rank, Type: FLUID, IoletID: -1, Links: emptyLinks(desc)}}
	}
	return &GeometryReadResult{
		BlockCounts: [3]uint16{2, 1, 1},
		BlockSize:   1,
		Blocks: []BlockReadResult{
			{Sites: mk(0)},
			{Sites: mk(1)},
		},
	}
}

// SyntheticS3 is a single fluid site whose direction-index-1 link
// intersects a wall at fraction 0.3, classified into the WALL bucket.
func SyntheticS3(desc *lattice.Descriptor) *GeometryReadResult {
	links := emptyLinks(desc)
	links[0] = LinkReadResult{CutType: CutWall, DistanceToWall: 0.3, HasWallIntersect: true}
	site := SiteReadResult{
		TargetProcessor:  0,
		Type:             WALL,
		WallIntersection: 1 << 0,
		IoletID:          -1,
		Links:            links,
	}
	return &GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 1},
		BlockSize:   1,
		Blocks:      []BlockReadResult{{Sites: []SiteReadResult{site}}},
	}
}

// SyntheticS4 is a fluid site at an inlet with a wall-touching link:
// bucket INLET|WALL, iolet id 0.
func SyntheticS4(desc *lattice.Descriptor) *GeometryReadResult {
	links := emptyLinks(desc)
	links[0] = LinkReadResult{CutType: CutWall, DistanceToWall: 0.2, HasWallIntersect: true}
	links[1] = LinkReadResult{CutType: CutInlet, DistanceToWall: 0.6}
	site := SiteReadResult{
		TargetProcessor:   0,
		Type:              INLET | WALL,
		WallIntersection:  1 << 0,
		IoletIntersection: 1 << 1,
		IoletID:           0,
		Links:             links,
	}
	return &GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 1},
		BlockSize:   1,
		Blocks:      []BlockReadResult{{Sites: []SiteReadResult{site}}},
	}
}

// SyntheticS5 is a single-site universe: every non-rest link from the
// one fluid site leaves the universe, none of them errors.
func SyntheticS5(desc *lattice.Descriptor) *GeometryReadResult {
	site := SiteReadResult{TargetProcessor: 0, Type: FLUID, IoletID: -1, Links: emptyLinks(desc)}
	return &GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 1},
		BlockSize:   1,
		Blocks:      []BlockReadResult{{Sites: []SiteReadResult{site}}},
	}
}

// SyntheticS6 places three single-site blocks at mutually adjacent
// corners so every rank pair (A,B), (B,C), (A,C) shares a direct D3Q19
// lattice link: A at (0,0,0), B at (1,0,0), C at (0,1,0). The A-B and
// A-C links are axis-aligned; the B-C link uses the (-1,1,0) diagonal
// direction D3Q19 provides.
func SyntheticS6(desc *lattice.Descriptor) *GeometryReadResult {
	mk := func(rank int32) []SiteReadResult {
		return []SiteReadResult{{TargetProcessor: rank, Type: FLUID, IoletID: -1, Links: emptyLinks(desc)}}
	}
	solid := []SiteReadResult{{TargetProcessor: TargetSolid, Type: SOLID, IoletID: -1, Links: emptyLinks(desc)}}

	g := &GeometryReadResult{
		BlockCounts: [3]uint16{2, 2, 1},
		BlockSize:   1,
		Blocks:      make([]BlockReadResult, 4),
	}
	g.Blocks[g.BlockGmyIndex(octree.BlockCoord{X: 0, Y: 0, Z: 0})] = BlockReadResult{Sites: mk(0)} // A
	g.Blocks[g.BlockGmyIndex(octree.BlockCoord{X: 0, Y: 1, Z: 0})] = BlockReadResult{Sites: mk(2)} // C
	g.Blocks[g.BlockGmyIndex(octree.BlockCoord{X: 1, Y: 0, Z: 0})] = BlockReadResult{Sites: mk(1)} // B
	g.Blocks[g.BlockGmyIndex(octree.BlockCoord{X: 1, Y: 1, Z: 0})] = BlockReadResult{Sites: solid}
	return g
}

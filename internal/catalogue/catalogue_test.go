package catalogue

import (
	"testing"

	"hemolattice/internal/directory"
	"hemolattice/internal/geomio"
	"hemolattice/internal/lattice"
	"hemolattice/internal/octree"
)

// singleRankCube builds a 1x1x1-block, 2x2x2-fluid-cube geometry (S1):
// every site owned by rank 0, no edges.
func singleRankCube(t *testing.T) *geomio.GeometryReadResult {
	t.Helper()
	desc := lattice.D3Q19
	blockSize := uint16(2)
	sites := make([]geomio.SiteReadResult, 8)
	for i := range sites {
		sites[i] = geomio.SiteReadResult{
			TargetProcessor: 0,
			Type:            geomio.FLUID,
			IoletID:         -1,
			Links:           make([]geomio.LinkReadResult, desc.Q()-1),
		}
	}
	return &geomio.GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 1},
		BlockSize:   blockSize,
		Blocks:      []geomio.BlockReadResult{{Sites: sites}},
	}
}

func buildTree(t *testing.T, geom *geomio.GeometryReadResult) *octree.Tree {
	t.Helper()
	return octree.Build(geom.BlockCounts, geom.NonEmptyBlockCoords())
}

func TestBuildS1SingleRankCube(t *testing.T) {
	geom := singleRankCube(t)
	tree := buildTree(t, geom)
	cat, err := Build(0, geom, tree, lattice.D3Q19)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cat.MidDomainCount[0] != 8 {
		t.Fatalf("MidDomain[FLUID] = %d, want 8", cat.MidDomainCount[0])
	}
	for l := 1; l < geomio.CollisionTypes; l++ {
		if cat.MidDomainCount[l] != 0 {
			t.Fatalf("MidDomain[%d] = %d, want 0", l, cat.MidDomainCount[l])
		}
	}
	for l := 0; l < geomio.CollisionTypes; l++ {
		if cat.DomainEdgeCount[l] != 0 {
			t.Fatalf("DomainEdge[%d] = %d, want 0", l, cat.DomainEdgeCount[l])
		}
	}
	if cat.LocalFluidCount() != 8 {
		t.Fatalf("LocalFluidCount = %d, want 8", cat.LocalFluidCount())
	}
}

func TestBuildS2TwoRankAdjacency(t *testing.T) {
	desc := lattice.D3Q19
	blockSize := uint16(1)
	// Two 1x1x1 blocks side by side along x; block (0,0,0) owned by rank 0,
	// block (1,0,0) owned by rank 1, each a single fluid site.
	mkSites := func(rank int32) []geomio.SiteReadResult {
		return []geomio.SiteReadResult{{
			TargetProcessor: rank,
			Type:            geomio.FLUID,
			IoletID:         -1,
			Links:           make([]geomio.LinkReadResult, desc.Q()-1),
		}}
	}
	geom := &geomio.GeometryReadResult{
		BlockCounts: [3]uint16{2, 1, 1},
		BlockSize:   blockSize,
		Blocks: []geomio.BlockReadResult{
			{Sites: mkSites(0)},
			{Sites: mkSites(1)},
		},
	}
	tree := buildTree(t, geom)

	cat0, err := Build(0, geom, tree, desc)
	if err != nil {
		t.Fatalf("Build rank 0: %v", err)
	}
	cat1, err := Build(1, geom, tree, desc)
	if err != nil {
		t.Fatalf("Build rank 1: %v", err)
	}

	if cat0.MidDomainCount[0] != 0 || cat0.DomainEdgeCount[0] != 1 {
		t.Fatalf("rank 0: mid=%d edge=%d, want mid=0 edge=1", cat0.MidDomainCount[0], cat0.DomainEdgeCount[0])
	}
	if cat1.MidDomainCount[0] != 0 || cat1.DomainEdgeCount[0] != 1 {
		t.Fatalf("rank 1: mid=%d edge=%d, want mid=0 edge=1", cat1.MidDomainCount[0], cat1.DomainEdgeCount[0])
	}
}

func TestBuildS5OutOfUniverseIsRubbishNotError(t *testing.T) {
	// A single fluid site at the corner of a 1x1x1 universe: every
	// non-rest link points out of universe, and classification must not
	// error; it's a mid-domain site with no edges.
	geom := singleRankCube(t)
	// shrink to a single-site block so every direction leaves the universe
	geom.BlockSize = 1
	geom.Blocks = []geomio.BlockReadResult{{Sites: []geomio.SiteReadResult{{
		TargetProcessor: 0,
		Type:            geomio.FLUID,
		IoletID:         -1,
		Links:           make([]geomio.LinkReadResult, lattice.D3Q19.Q()-1),
	}}}}
	tree := buildTree(t, geom)
	cat, err := Build(0, geom, tree, lattice.D3Q19)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cat.MidDomainCount[0] != 1 {
		t.Fatalf("MidDomain[FLUID] = %d, want 1", cat.MidDomainCount[0])
	}
	if cat.DomainEdgeCount[0] != 0 {
		t.Fatalf("DomainEdge[FLUID] = %d, want 0", cat.DomainEdgeCount[0])
	}
}

func TestPublishWritesDirectoryEntries(t *testing.T) {
	geom := singleRankCube(t)
	tree := buildTree(t, geom)
	cat, err := Build(0, geom, tree, lattice.D3Q19)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dir := directory.NewSiteDirectory()
	cat.Publish(dir)
	if dir.Len() != 8 {
		t.Fatalf("dir.Len() = %d, want 8", dir.Len())
	}
	for idx, e := range cat.Entries {
		got, err := dir.Get(directory.Key{Block: e.Block, SiteID: e.SiteID})
		if err != nil {
			t.Fatalf("Get(%v): %v", e, err)
		}
		if got.LocalIdx != int64(idx) {
			t.Fatalf("entry %d: LocalIdx = %d, want %d", idx, got.LocalIdx, idx)
		}
	}
}

func TestOrderingInvariantBucketOrderWithinMidDomain(t *testing.T) {
	// Two rank-0 mid-domain sites: a WALL site (bucket 1) in the first
	// block, discovered first, and a FLUID site (bucket 0) in the second.
	// Verify the final Entries slice is ordered by bucket (FLUID before
	// WALL), not by discovery order.
	desc := lattice.D3Q19
	sites := []geomio.SiteReadResult{
		{TargetProcessor: 0, Type: geomio.WALL, IoletID: -1, Links: make([]geomio.LinkReadResult, desc.Q()-1)},
		{TargetProcessor: 0, Type: geomio.FLUID, IoletID: -1, Links: make([]geomio.LinkReadResult, desc.Q()-1)},
	}
	geom := &geomio.GeometryReadResult{
		BlockCounts: [3]uint16{1, 1, 2},
		BlockSize:   1,
		Blocks: []geomio.BlockReadResult{
			{Sites: sites[:1]},
			{Sites: sites[1:]},
		},
	}
	tree := buildTree(t, geom)
	cat, err := Build(0, geom, tree, desc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(cat.Entries))
	}
	if cat.Entries[0].CollisionBucket != 0 {
		t.Fatalf("Entries[0].CollisionBucket = %d, want 0 (FLUID before WALL)", cat.Entries[0].CollisionBucket)
	}
	if cat.Entries[1].CollisionBucket != 1 {
		t.Fatalf("Entries[1].CollisionBucket = %d, want 1", cat.Entries[1].CollisionBucket)
	}
}

// Package catalogue builds the per-worker local fluid catalogue: Phase A
// classifies every locally-owned site as mid-domain or domain-edge and
// buckets it by collision type; Phase B assigns contiguous indices in
// the ordering invariant's fixed layout and publishes each site's
// (owner, local index) into the distributed site directory.
package catalogue

import (
	"fmt"

	"hemolattice/internal/directory"
	"hemolattice/internal/domainerr"
	"hemolattice/internal/geomio"
	"hemolattice/internal/lattice"
	"hemolattice/internal/octree"
)

// FluidSiteEntry is one locally-owned fluid site's catalogue record.
type FluidSiteEntry struct {
	Block          octree.BlockCoord
	SiteID         int64
	GlobalCoord    [3]int64
	Data           geomio.SiteReadResult
	CollisionBucket int
	DomainEdge     bool
}

// Catalogue holds the per-worker arrays in the §3 ordering invariant:
// mid-domain sites (buckets 0..5) followed by domain-edge sites
// (buckets 0..5), each internally in discovery order.
type Catalogue struct {
	Rank int

	Entries []FluidSiteEntry // final contiguous order; index == local_fluid_index

	MidDomainCount  [geomio.CollisionTypes]int64
	DomainEdgeCount [geomio.CollisionTypes]int64
}

// LocalFluidCount is the total number of locally-owned fluid sites.
func (c *Catalogue) LocalFluidCount() int64 { return int64(len(c.Entries)) }

// Counts packs the collision counts into the wire layout §4.3 describes:
// MidDomain[0..5] then DomainEdge[0..5].
func (c *Catalogue) Counts() directory.Counts {
	var out directory.Counts
	for i := 0; i < geomio.CollisionTypes; i++ {
		out[i] = c.MidDomainCount[i]
		out[6+i] = c.DomainEdgeCount[i]
	}
	return out
}

// stagingEntry is a Phase A intermediate record, before contiguous
// numbering is known.
type stagingEntry struct {
	block       octree.BlockCoord
	siteID      int64
	globalCoord [3]int64
	data        geomio.SiteReadResult
	bucket      int
	domainEdge  bool
}

// Build runs Phase A (classification) then Phase B's contiguous
// numbering for one rank's share of geom, against tree for the
// deterministic block traversal order. It does not write the site
// directory; Publish does that.
//
// geom must be identical on every rank: this in-process module gives
// every rank full visibility of the read geometry, which the original
// engine's parallel-I/O front end does not provide its own rank in
// general. That simplification is sound here because Phase A's only use
// of geometry outside this rank's own sites is to answer "is this
// neighbour foreign and non-solid", a question the full geometry
// answers exactly.
func Build(rank int, geom *geomio.GeometryReadResult, tree *octree.Tree, desc *lattice.Descriptor) (*Catalogue, error) {
	var midStaging [geomio.CollisionTypes][]stagingEntry
	var edgeStaging [geomio.CollisionTypes][]stagingEntry

	b := int64(geom.BlockSize)

	err := iterLeavesInOrder(tree, func(leaf octree.Leaf) error {
		bc := leaf.Coords()
		block := geom.Blocks[geom.BlockGmyIndex(bc)]
		if block.Empty() {
			return nil
		}
		for lx := uint16(0); lx < geom.BlockSize; lx++ {
			for ly := uint16(0); ly < geom.BlockSize; ly++ {
				for lz := uint16(0); lz < geom.BlockSize; lz++ {
					local := [3]uint16{lx, ly, lz}
					siteID := int64(geom.SiteGmyIndex(local))
					site := block.Sites[siteID]

					if site.TargetProcessor != int32(rank) {
						continue // solid, or owned elsewhere: nothing to catalogue here
					}
					bucket, ok := site.Type.CollisionBucket()
					if !ok {
						return domainerr.New(domainerr.GeometryInconsistency, rank,
							[3]uint16{bc.X, bc.Y, bc.Z}, siteID, -1,
							fmt.Sprintf("site has non-fluid collision type %v claimed by owning rank", site.Type), nil)
					}

					global := globalCoord(bc, local, b)
					domainEdge := false
					for q := 1; q < desc.Q(); q++ {
						c := desc.C[q]
						neighbourGlobal := [3]int64{
							global[0] + int64(c.X),
							global[1] + int64(c.Y),
							global[2] + int64(c.Z),
						}
						neighbourRank, isSolidOrOutside := geom.LookupOwner(tree, neighbourGlobal)
						if isSolidOrOutside {
							continue
						}
						if neighbourRank != int32(rank) {
							domainEdge = true
						}
					}

					entry := stagingEntry{
						block:       bc,
						siteID:      siteID,
						globalCoord: global,
						data:        site,
						bucket:      bucket,
						domainEdge:  domainEdge,
					}
					if domainEdge {
						edgeStaging[bucket] = append(edgeStaging[bucket], entry)
					} else {
						midStaging[bucket] = append(midStaging[bucket], entry)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cat := &Catalogue{Rank: rank}
	for l := 0; l < geomio.CollisionTypes; l++ {
		cat.MidDomainCount[l] = int64(len(midStaging[l]))
	}
	for l := 0; l < geomio.CollisionTypes; l++ {
		cat.DomainEdgeCount[l] = int64(len(edgeStaging[l]))
	}

	for l := 0; l < geomio.CollisionTypes; l++ {
		for _, e := range midStaging[l] {
			cat.Entries = append(cat.Entries, toEntry(e))
		}
	}
	for l := 0; l < geomio.CollisionTypes; l++ {
		for _, e := range edgeStaging[l] {
			cat.Entries = append(cat.Entries, toEntry(e))
		}
	}

	return cat, nil
}

// Publish performs the second half of Phase B: writes every entry's
// (owner, local index) into the site directory. Split out from Build so
// callers can run classification before all peers have joined the
// directory's communicator, then publish once collectively ready.
func (c *Catalogue) Publish(dir *directory.SiteDirectory) {
	for idx, e := range c.Entries {
		key := directory.Key{Block: e.Block, SiteID: e.SiteID}
		dir.Put(key, directory.SiteRankIndex{Rank: int32(c.Rank), LocalIdx: int64(idx)})
	}
}

func toEntry(e stagingEntry) FluidSiteEntry {
	return FluidSiteEntry{
		Block:           e.block,
		SiteID:          e.siteID,
		GlobalCoord:     e.globalCoord,
		Data:            e.data,
		CollisionBucket: e.bucket,
		DomainEdge:      e.domainEdge,
	}
}

func globalCoord(bc octree.BlockCoord, local [3]uint16, blockSize int64) [3]int64 {
	return [3]int64{
		int64(bc.X)*blockSize + int64(local[0]),
		int64(bc.Y)*blockSize + int64(local[1]),
		int64(bc.Z)*blockSize + int64(local[2]),
	}
}

// iterLeavesInOrder walks the octree's leaves in index order, so Phase A
// runs deterministically regardless of map iteration order elsewhere.
func iterLeavesInOrder(tree *octree.Tree, fn func(octree.Leaf) error) error {
	leaves := tree.Leaves()
	for _, leaf := range leaves {
		if err := fn(leaf); err != nil {
			return err
		}
	}
	return nil
}

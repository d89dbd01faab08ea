// Package domain sequences the whole per-rank domain build: spatial
// indexing, local fluid cataloguing, directory publication, and
// neighbour-link resolution, plus the two collective suspension points
// (i) and (ii) from §5 that the rest of a run needs to size its own
// buffers before the first tick: the fluid-site distribution across
// ranks and the global coordinate extrema.
package domain

import (
	"hemolattice/internal/catalogue"
	"hemolattice/internal/directory"
	"hemolattice/internal/geomio"
	"hemolattice/internal/lattice"
	"hemolattice/internal/octree"
	"hemolattice/internal/topology"
)

// Result is everything one rank's domain build produces.
type Result struct {
	Rank      int
	Tree      *octree.Tree
	Catalogue *catalogue.Catalogue
	Plan      *topology.Plan

	// FluidSiteDistribution[r] is rank r's LocalFluidCount, gathered
	// across every rank (suspension point (i)).
	FluidSiteDistribution []int64

	// GlobalMin/Max are the componentwise extrema of every fluid site's
	// global coordinate across every rank (suspension point (ii)).
	GlobalMin [3]int64
	GlobalMax [3]int64
}

// Build runs one rank's full domain build against a geometry every rank
// sees identically (see catalogue.Build and geomio.LookupOwner's doc
// comments for why that in-process simplification is sound here).
func Build(comm directory.Communicator, geom *geomio.GeometryReadResult, desc *lattice.Descriptor) (*Result, error) {
	rank := comm.Rank()

	tree := octree.Build(geom.BlockCounts, geom.NonEmptyBlockCoords())

	cat, err := catalogue.Build(rank, geom, tree, desc)
	if err != nil {
		return nil, err
	}
	cat.Publish(comm.SiteDirectory())
	comm.SharedCounts().Publish(rank, cat.Counts())

	plan, err := topology.Resolve(comm, cat, geom, tree, desc)
	if err != nil {
		return nil, err
	}

	dist, err := comm.AllGather(cat.LocalFluidCount())
	if err != nil {
		return nil, err
	}

	localMin, localMax := localExtrema(cat)
	globalMin, err := comm.AllReduceMin(localMin)
	if err != nil {
		return nil, err
	}
	globalMax, err := comm.AllReduceMax(localMax)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rank:                  rank,
		Tree:                  tree,
		Catalogue:             cat,
		Plan:                  plan,
		FluidSiteDistribution: dist,
		GlobalMin:             globalMin,
		GlobalMax:             globalMax,
	}, nil
}

// localExtrema returns the componentwise min/max of every locally-owned
// fluid site's global coordinate. A rank with no local sites contributes
// the identity elements for min/max so it never skews the reduction.
func localExtrema(cat *catalogue.Catalogue) (min [3]int64, max [3]int64) {
	if len(cat.Entries) == 0 {
		const inf = int64(1) << 62
		return [3]int64{inf, inf, inf}, [3]int64{-inf, -inf, -inf}
	}
	min = cat.Entries[0].GlobalCoord
	max = cat.Entries[0].GlobalCoord
	for _, e := range cat.Entries[1:] {
		for axis := 0; axis < 3; axis++ {
			if e.GlobalCoord[axis] < min[axis] {
				min[axis] = e.GlobalCoord[axis]
			}
			if e.GlobalCoord[axis] > max[axis] {
				max[axis] = e.GlobalCoord[axis]
			}
		}
	}
	return min, max
}

// Package streamtest is a minimal identity-collision streaming harness:
// it runs one tick of the streaming step against a resolved topology.Plan
// with a trivial collision operator, so tests can check the streaming
// index tables actually produce a correct round trip (P7) without
// pulling in the collision kernels the domain builder hands off to.
package streamtest

import "hemolattice/internal/topology"

// Seed fills FOld so that FOld[s*Q+q] == s*Q+q for every local site s and
// direction q, and returns the flat slice of length localFluidCount*Q:
// the local distributions only, without the rubbish slot or shared
// region that plan.FNewLength counts.
func Seed(localFluidCount int64, plan *topology.Plan) []int64 {
	fOld := make([]int64, localFluidCount*int64(plan.Q))
	for i := range fOld {
		fOld[i] = int64(i)
	}
	return fOld
}

// StreamIdentity performs one streaming tick with an identity collision
// operator: FNew[plan.NeighbourIndices[i]] = FOld[i] for every local
// distribution i, into a fresh slice of length plan.FNewLength. The
// rubbish slot absorbs anything routed there and is never read back.
// Distributions bound for a peer land in the shared region (index >=
// rubbish+1); values arriving from peers are not placed here,
// ExchangeShared writes them at their receive targets.
func StreamIdentity(localFluidCount int64, plan *topology.Plan, fOld []int64) []int64 {
	fNew := make([]int64, plan.FNewLength(localFluidCount))
	for i, v := range fOld {
		fNew[plan.NeighbourIndices[i]] = v
	}
	return fNew
}

// ExchangeShared copies each site's shared-region source values, as
// captured by the caller from the peer's FOld via whatever transport it
// uses, into fNew at the paired StreamingIndicesForReceivedDistributions
// slot. shared must be ordered exactly as plan.NeighbouringProcs walks
// its peers, i.e. shared[i] corresponds to
// plan.StreamingIndicesForReceivedDistributions[i].
func ExchangeShared(plan *topology.Plan, fNew []int64, shared []int64) {
	for i, v := range shared {
		fNew[plan.StreamingIndicesForReceivedDistributions[i]] = v
	}
}

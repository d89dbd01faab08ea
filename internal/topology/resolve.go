// Package topology resolves every fluid site's outgoing lattice links to
// their streaming targets and builds the paired send/receive index
// tables the streaming step consults each tick: the neighbour-link
// resolver and exchange topology of the domain builder.
package topology

import (
	"fmt"
	"sort"

	"hemolattice/internal/catalogue"
	"hemolattice/internal/directory"
	"hemolattice/internal/domainerr"
	"hemolattice/internal/geomio"
	"hemolattice/internal/lattice"
	"hemolattice/internal/octree"
)

const advertiseTag = 1

// NeighbouringProcessor is one peer this rank exchanges a shared
// distribution region with.
type NeighbouringProcessor struct {
	Rank                    int
	SharedDistributionCount int64
	FirstSharedDistribution int64
}

// Plan is the resolved streaming contract for one rank: where every
// local distribution must be written, and how the shared region maps
// onto peers.
type Plan struct {
	Q           int
	RubbishSlot int64

	// NeighbourIndices has length LocalFluidCount*Q; entry [s*Q+q] is the
	// target index in FNew for local site s's direction-q distribution.
	NeighbourIndices []int64

	NeighbouringProcs []NeighbouringProcessor

	// StreamingIndicesForReceivedDistributions has length TotalSharedFs;
	// entry i is the FNew target for the i-th value received into the
	// shared region (across all peers, in NeighbouringProcs order).
	StreamingIndicesForReceivedDistributions []int64

	TotalSharedFs int64
}

// FNewLength is localFluidCount*Q + 1 + totalSharedFs, the array length
// the streaming step's FOld/FNew buffers must have.
func (p *Plan) FNewLength(localFluidCount int64) int64 {
	return localFluidCount*int64(p.Q) + 1 + p.TotalSharedFs
}

// Resolve builds the streaming Plan for one rank, given its already-built
// local catalogue, the full read geometry (used, as in Phase A, as a
// stand-in for genuinely distributed neighbour-ownership knowledge), the
// octree it was built against, the lattice descriptor, and a
// Communicator for the cross-rank advertise/pair exchange of §4.4.
func Resolve(comm directory.Communicator, cat *catalogue.Catalogue, geom *geomio.GeometryReadResult, tree *octree.Tree, desc *lattice.Descriptor) (*Plan, error) {
	q := desc.Q()
	localFluidCount := cat.LocalFluidCount()
	rubbishSlot := localFluidCount * int64(q)

	localIndexOf := make(map[catKey]int64, len(cat.Entries))
	for idx, e := range cat.Entries {
		localIndexOf[catKey{e.Block, e.SiteID}] = int64(idx)
	}

	neighbourIndices := make([]int64, localFluidCount*int64(q))
	adverts := make(map[int][]linkAdvert) // peer rank -> my outgoing links toward it

	for idx, e := range cat.Entries {
		neighbourIndices[int64(idx)*int64(q)+0] = int64(idx)*int64(q) + 0 // rest direction is always self

		for dir := 1; dir < q; dir++ {
			c := desc.C[dir]
			neighbourGlobal := [3]int64{
				e.GlobalCoord[0] + int64(c.X),
				e.GlobalCoord[1] + int64(c.Y),
				e.GlobalCoord[2] + int64(c.Z),
			}
			ownerRank, solidOrOutside := geom.LookupOwner(tree, neighbourGlobal)
			switch {
			case solidOrOutside:
				neighbourIndices[int64(idx)*int64(q)+int64(dir)] = rubbishSlot
			case int(ownerRank) == cat.Rank:
				bc, local, ok := geom.BlockAndLocalCoord(neighbourGlobal)
				if !ok {
					return nil, domainerr.New(domainerr.GeometryInconsistency, cat.Rank,
						[3]uint16{e.Block.X, e.Block.Y, e.Block.Z}, e.SiteID, dir,
						"local-owned neighbour resolved to an invalid coordinate", nil)
				}
				siteID := int64(geom.SiteGmyIndex(local))
				t, ok := localIndexOf[catKey{bc, siteID}]
				if !ok {
					return nil, domainerr.New(domainerr.PartitionInconsistency, cat.Rank,
						[3]uint16{bc.X, bc.Y, bc.Z}, siteID, dir,
						"site claimed local by geometry but absent from local catalogue", nil)
				}
				neighbourIndices[int64(idx)*int64(q)+int64(dir)] = t*int64(q) + int64(dir)
			default:
				adverts[int(ownerRank)] = append(adverts[int(ownerRank)], linkAdvert{
					x:        e.GlobalCoord,
					q:        dir,
					localIdx: int64(idx),
				})
			}
		}
	}

	peers := make([]int, 0, len(adverts))
	for p := range adverts {
		peers = append(peers, p)
	}
	sort.Ints(peers)

	var procs []NeighbouringProcessor
	var recvTargets []int64
	var totalSharedFs int64

	// Every shared distribution needs both halves bound on this rank: a
	// send slot in NeighbourIndices for this rank's own outgoing link,
	// and a receive target in StreamingIndicesForReceivedDistributions
	// for the distribution that arrives back along the same channel (the
	// peer's own outgoing link in the opposite direction). The "lower
	// rank sends" tie-break only decides who derives the link's local
	// (site, direction) pair from their own advertised list versus from
	// the peer's mirrored advert; both ranks then bind both halves for
	// every link they own, matching Domain::InitialiseReceiveLookup.
	for _, peer := range peers {
		myLinks := adverts[peer]

		if cat.Rank < peer {
			if err := comm.Send(peer, advertiseTag, encodeAdverts(myLinks)); err != nil {
				return nil, domainerr.New(domainerr.TransportFailure, cat.Rank, [3]uint16{}, -1, -1,
					fmt.Sprintf("advertise send to rank %d failed", peer), err)
			}
			first := totalSharedFs
			for i, link := range myLinks {
				slot := rubbishSlot + 1 + first + int64(i)
				site := link.localIdx
				dir := int64(link.q)
				neighbourIndices[site*int64(q)+dir] = slot
				recvTargets = append(recvTargets, site*int64(q)+int64(desc.Inverse[link.q]))
			}
			count := int64(len(myLinks))
			procs = append(procs, NeighbouringProcessor{Rank: peer, SharedDistributionCount: count, FirstSharedDistribution: first})
			totalSharedFs += count
		} else {
			payload, err := comm.Recv(peer, advertiseTag)
			if err != nil {
				return nil, domainerr.New(domainerr.TransportFailure, cat.Rank, [3]uint16{}, -1, -1,
					fmt.Sprintf("advertise receive from rank %d failed", peer), err)
			}
			received := decodeAdverts(payload)
			if len(received) != len(myLinks) {
				return nil, domainerr.New(domainerr.PartitionInconsistency, cat.Rank, [3]uint16{}, -1, -1,
					fmt.Sprintf("rank %d advertised %d shared links, this rank has %d toward it", peer, len(received), len(myLinks)), nil)
			}

			first := totalSharedFs
			for i, sender := range received {
				c := desc.C[sender.q]
				xReceiver := [3]int64{
					sender.x[0] + int64(c.X),
					sender.x[1] + int64(c.Y),
					sender.x[2] + int64(c.Z),
				}
				qReceiver := desc.Inverse[sender.q]

				bc, local, ok := geom.BlockAndLocalCoord(xReceiver)
				if !ok {
					return nil, domainerr.New(domainerr.PartitionInconsistency, cat.Rank, [3]uint16{}, -1, sender.q,
						fmt.Sprintf("mirrored receive site from rank %d resolved outside the universe", peer), nil)
				}
				siteID := int64(geom.SiteGmyIndex(local))
				t, ok := localIndexOf[catKey{bc, siteID}]
				if !ok {
					return nil, domainerr.New(domainerr.PartitionInconsistency, cat.Rank,
						[3]uint16{bc.X, bc.Y, bc.Z}, siteID, sender.q,
						fmt.Sprintf("mirrored receive site from rank %d is not locally owned here", peer), nil)
				}

				// (xReceiver, qReceiver) is this rank's own site and its
				// own outgoing direction toward peer, derived from the
				// peer's mirrored advert, the cross-rank analogue of
				// (link.localIdx, link.q) in the lower-rank branch above.
				slot := rubbishSlot + 1 + first + int64(i)
				neighbourIndices[t*int64(q)+int64(qReceiver)] = slot
				recvTargets = append(recvTargets, t*int64(q)+int64(sender.q))
			}

			count := int64(len(received))
			procs = append(procs, NeighbouringProcessor{Rank: peer, SharedDistributionCount: count, FirstSharedDistribution: first})
			totalSharedFs += count
		}
	}

	return &Plan{
		Q:                 q,
		RubbishSlot:       rubbishSlot,
		NeighbourIndices:  neighbourIndices,
		NeighbouringProcs: procs,
		StreamingIndicesForReceivedDistributions: recvTargets,
		TotalSharedFs: totalSharedFs,
	}, nil
}

type catKey struct {
	block  octree.BlockCoord
	siteID int64
}

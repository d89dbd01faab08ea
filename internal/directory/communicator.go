// Package directory implements the distributed site directory: a
// one-sided, read-mostly table mapping (block, local site) to
// (owner_rank, local_contiguous_index), plus the small "shared counts"
// window that answers whether a remote site is mid-domain or
// domain-edge. Both are expressed against a Communicator interface so a
// real MPI-style transport can be substituted for LocalCommunicator
// without touching the rest of the module.
package directory


// Communicator is this module's expression of §6's IOCommunicator: the
// collective and point-to-point operations a worker needs, plus the
// one-sided window handles for the site directory and shared-counts
// table. It is intentionally small; everything else in this module is
// built on these primitives.
type Communicator interface {
	Rank() int
	Size() int

	// AllGather returns, on every rank, the slice of all ranks' local
	// values in rank order.
	AllGather(local int64) ([]int64, error)

	// AllReduceMin/Max perform an elementwise MPI_MIN/MPI_MAX reduction
	// over a fixed-size vector, returning the reduced result on every
	// rank.
	AllReduceMin(local [3]int64) ([3]int64, error)
	AllReduceMax(local [3]int64) ([3]int64, error)

	// Send/Recv are point-to-point, matched by (peer, tag). Messages
	// between the same ordered pair of ranks are totally ordered;
	// between different pairs, ordering is unspecified.
	Send(to int, tag int, payload []int64) error
	Recv(from int, tag int) ([]int64, error)

	// Barrier blocks until every rank has called Barrier with the same
	// generation, standing in for the synchronization a passive-target
	// RMA epoch would provide between a round of Puts and the Gets that
	// depend on them.
	Barrier() error

	// SiteDirectory and SharedCounts return handles to the two windowed
	// tables; every rank sees the same underlying tables. Neither handle
	// caches reads; a rank's remote-read cache for shared counts is a
	// CountsReader built over SharedCounts.
	SiteDirectory() *SiteDirectory
	SharedCounts() *SharedCountsTable
}

package directory

import (
	"sync"

	"hemolattice/internal/domainerr"
)

// Counts is a rank's published MidDomain[0..5] then DomainEdge[0..5]
// collision counts, concatenated so a reader can compute a prefix sum
// over MidDomain without knowing anything about DomainEdge.
type Counts [12]int64

// MidDomainTotal returns the sum of the six MidDomain buckets: the
// number of local fluid indices below which every site is mid-domain.
func (c Counts) MidDomainTotal() int64 {
	var sum int64
	for i := 0; i < 6; i++ {
		sum += c[i]
	}
	return sum
}

// SharedCountsTable is the small process-wide window each rank publishes
// its collision-count vector into once, at the end of Phase B.
type SharedCountsTable struct {
	mu        sync.RWMutex
	published map[int]Counts
}

// NewSharedCountsTable returns an empty table.
func NewSharedCountsTable() *SharedCountsTable {
	return &SharedCountsTable{published: make(map[int]Counts)}
}

// Publish writes this rank's collision counts. Called exactly once, by
// the owning rank, at the end of Phase B.
func (t *SharedCountsTable) Publish(rank int, c Counts) {
	t.mu.Lock()
	t.published[rank] = c
	t.mu.Unlock()
}

func (t *SharedCountsTable) fetch(rank int) (Counts, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.published[rank]
	return c, ok
}

// CountsReader is one rank's private view onto the SharedCountsTable,
// including its own remote-read cache. Entries are invalidated only when
// Close is called (at teardown), matching §4.2's cache discipline.
type CountsReader struct {
	table *SharedCountsTable
	mu    sync.Mutex
	cache map[int]Counts
}

// NewCountsReader returns a reader backed by table, private to one rank.
func NewCountsReader(table *SharedCountsTable) *CountsReader {
	return &CountsReader{table: table, cache: make(map[int]Counts)}
}

// Get returns rank's published counts, satisfying repeat requests to the
// same peer from the local cache.
func (r *CountsReader) Get(rank int) (Counts, error) {
	r.mu.Lock()
	if c, ok := r.cache[rank]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	c, ok := r.table.fetch(rank)
	if !ok {
		return Counts{}, domainerr.New(domainerr.DirectoryMiss, rank, [3]uint16{}, -1, -1,
			"no shared counts published for rank", nil)
	}

	r.mu.Lock()
	r.cache[rank] = c
	r.mu.Unlock()
	return c, nil
}

// IsDomainEdge answers whether local_idx on rank names a domain-edge
// site, by comparing it against rank's published MidDomain prefix sum,
// the operation Domain::IsSiteDomainEdge performs in the original engine.
func (r *CountsReader) IsDomainEdge(rank int, localIdx int64) (bool, error) {
	c, err := r.Get(rank)
	if err != nil {
		return false, err
	}
	return localIdx >= c.MidDomainTotal(), nil
}

// Close invalidates the local cache. Safe to call multiple times.
func (r *CountsReader) Close() {
	r.mu.Lock()
	r.cache = make(map[int]Counts)
	r.mu.Unlock()
}

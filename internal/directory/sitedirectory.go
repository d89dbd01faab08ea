package directory

import (
	"sync"

	"hemolattice/internal/geomio"
	"hemolattice/internal/octree"
)

// Key identifies one site's directory entry.
type Key struct {
	Block  octree.BlockCoord
	SiteID int64
}

// SiteRankIndex is a directory entry: the owning rank and that rank's
// local contiguous fluid-site index for the site.
type SiteRankIndex struct {
	Rank     int32
	LocalIdx int64
}

// SiteDirectory is the windowed, one-sided site directory. Writes
// (Put) happen only during init, one per locally-owned fluid site, each
// performed by that site's owning rank. Reads (Get) happen during init
// (topology resolution) and, in a running engine, during steady state;
// they may target an entry published by any rank.
type SiteDirectory struct {
	mu      sync.RWMutex
	entries map[Key]SiteRankIndex
}

// NewSiteDirectory returns an empty directory ready to accept Puts.
func NewSiteDirectory() *SiteDirectory {
	return &SiteDirectory{entries: make(map[Key]SiteRankIndex)}
}

// Put publishes the (owner, local index) pair for a locally-owned fluid
// site. It is local-only in the sense that only the owning rank should
// ever call it for a given key; the directory does not enforce that here
// since, in-process, every rank shares the same *SiteDirectory value;
// a real one-sided transport would instead route the write to the
// target's own window.
func (d *SiteDirectory) Put(key Key, entry SiteRankIndex) {
	d.mu.Lock()
	d.entries[key] = entry
	d.mu.Unlock()
}

// solidSentinel is the SiteRankIndex returned for a key with no
// published entry, matching GetSiteData's failure model (spec §4.2/P5):
// solid sites, empty blocks, and out-of-universe coordinates are never
// Put, so an absent key and a genuinely solid one are indistinguishable
// here, and both resolve to TargetSolid rather than an error.
var solidSentinel = SiteRankIndex{Rank: geomio.TargetSolid, LocalIdx: -1}

// Get performs the one-sided directory read: given a block coordinate
// and local site id, return the owner rank and that rank's local
// contiguous index. Per the directory totality invariant, a key with no
// published entry is not an error; it returns the solid sentinel, the
// same as the original engine's Domain::GetSiteData does for solid,
// empty, or out-of-universe coordinates.
func (d *SiteDirectory) Get(key Key) (SiteRankIndex, error) {
	d.mu.RLock()
	e, ok := d.entries[key]
	d.mu.RUnlock()
	if !ok {
		return solidSentinel, nil
	}
	return e, nil
}

// GetSiteData is Get under the name spec.md §4.2 gives the operation.
func (d *SiteDirectory) GetSiteData(key Key) (SiteRankIndex, error) {
	return d.Get(key)
}

// Len reports the number of published entries; used only by tests and
// diagnostics.
func (d *SiteDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

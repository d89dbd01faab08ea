// Package domainerr classifies the failure modes of the domain builder per
// the error handling design: which are fatal, which carry rank/site
// context, and which (only OutOfDomain) are expected and non-fatal.
package domainerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain-builder error.
type Kind int

const (
	// GeometryInconsistency: a site's neighbour is marked fluid on one
	// side and solid on the other, or a block is absent where a
	// non-solid neighbour lookup lands.
	GeometryInconsistency Kind = iota
	// PartitionInconsistency: a site is claimed by two owners, or
	// domain-edge counts disagree across a peer pair.
	PartitionInconsistency
	// DirectoryMiss: a remote read targeted a block the owning peer
	// does not hold.
	DirectoryMiss
	// OutOfDomain: a coordinate lookup fell outside the universe. Not
	// fatal; callers normalise it to the solid sentinel.
	OutOfDomain
	// TransportFailure: a collective or one-sided operation failed.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case GeometryInconsistency:
		return "GeometryInconsistency"
	case PartitionInconsistency:
		return "PartitionInconsistency"
	case DirectoryMiss:
		return "DirectoryMiss"
	case OutOfDomain:
		return "OutOfDomain"
	case TransportFailure:
		return "TransportFailure"
	default:
		return "Unknown"
	}
}

// Error is a domain-builder error carrying enough context (rank,
// block/site coordinate, and link direction where applicable) that the
// CLI and diagnostics log can report the offending location without
// re-deriving it from a bare string.
type Error struct {
	Kind      Kind
	Rank      int
	Block     [3]uint16
	SiteID    int64
	Direction int
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: rank=%d block=%v site=%d dir=%d: %s",
		e.Kind, e.Rank, e.Block, e.SiteID, e.Direction, e.Msg)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether this error kind aborts initialisation. Every kind
// except OutOfDomain is fatal.
func (e *Error) Fatal() bool { return e.Kind != OutOfDomain }

// New constructs a domain error with the given kind and location context.
func New(kind Kind, rank int, block [3]uint16, siteID int64, direction int, msg string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Rank:      rank,
		Block:     block,
		SiteID:    siteID,
		Direction: direction,
		Msg:       msg,
		Err:       cause,
	}
}

// IsOutOfDomain reports whether err is (or wraps) an OutOfDomain error.
func IsOutOfDomain(err error) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == OutOfDomain
}

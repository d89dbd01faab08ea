package domainerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		kind  Kind
		fatal bool
	}{
		{GeometryInconsistency, true},
		{PartitionInconsistency, true},
		{DirectoryMiss, true},
		{OutOfDomain, false},
		{TransportFailure, true},
	}
	for _, c := range cases {
		e := New(c.kind, 0, [3]uint16{}, 0, 0, "x", nil)
		if e.Fatal() != c.fatal {
			t.Errorf("%s: Fatal()=%v, want %v", c.kind, e.Fatal(), c.fatal)
		}
	}
}

func TestIsOutOfDomainThroughWrap(t *testing.T) {
	base := New(OutOfDomain, 2, [3]uint16{1, 2, 3}, 9, 4, "outside universe", nil)
	wrapped := fmt.Errorf("lookup failed: %w", base)
	if !IsOutOfDomain(wrapped) {
		t.Fatalf("expected wrapped error to be recognised as OutOfDomain")
	}
	if IsOutOfDomain(errors.New("unrelated")) {
		t.Fatalf("unrelated error incorrectly classified as OutOfDomain")
	}
}

func TestErrorMessageIncludesContext(t *testing.T) {
	e := New(PartitionInconsistency, 3, [3]uint16{4, 5, 6}, 12, 2, "double ownership", nil)
	msg := e.Error()
	for _, want := range []string{"PartitionInconsistency", "rank=3", "site=12", "dir=2"} {
		if !contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}

// Package audit performs post-hoc data-quality checks over a pipeline's
// result set: integrity (each record's checksum matches the one derived
// from its id) and completeness (every expected id present exactly
// once). Findings are warnings, never run failures.
package audit

import (
	"sort"

	"github.com/GriffinCanCode/recordflow/internal/record"
)

// Integrity summarizes the per-record checksum verification.
type Integrity struct {
	Valid      int
	InvalidIDs []int // ascending
}

// Clean reports whether every record verified.
func (i Integrity) Clean() bool {
	return len(i.InvalidIDs) == 0
}

// Completeness summarizes id coverage against the expected total.
type Completeness struct {
	Missing    []int // ids in [1, N] never observed, ascending
	Duplicates []int // ids observed more than once, ascending
}

// Clean reports whether the result set covers exactly the expected ids.
func (c Completeness) Clean() bool {
	return len(c.Missing) == 0 && len(c.Duplicates) == 0
}

// ValidateBatch recomputes each record's expected checksum from its id
// and partitions the batch into valid records and failing ids. The
// failing list is exact; display capping is the reporter's concern.
func ValidateBatch(results []record.Record) Integrity {
	out := Integrity{}
	for _, rec := range results {
		if rec.Verify() {
			out.Valid++
		} else {
			out.InvalidIDs = append(out.InvalidIDs, rec.ID)
		}
	}
	sort.Ints(out.InvalidIDs)
	return out
}

// CheckCompleteness computes the exact sets of missing and duplicated
// ids for an expected id range [1, expected].
func CheckCompleteness(results []record.Record, expected int) Completeness {
	counts := make(map[int]int, len(results))
	for _, rec := range results {
		counts[rec.ID]++
	}

	out := Completeness{}
	for id := 1; id <= expected; id++ {
		if counts[id] == 0 {
			out.Missing = append(out.Missing, id)
		}
	}
	for id, n := range counts {
		if n > 1 {
			out.Duplicates = append(out.Duplicates, id)
		}
	}
	sort.Ints(out.Duplicates)
	return out
}

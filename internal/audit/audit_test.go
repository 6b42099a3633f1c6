package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/recordflow/internal/record"
)

// processed builds a fully processed record for id: final value and
// matching checksum.
func processed(id int) record.Record {
	return record.Record{
		ID:       id,
		Value:    record.FinalValue(id),
		Checksum: record.ExpectedSum(id),
	}
}

func fullBatch(n int) []record.Record {
	out := make([]record.Record, 0, n)
	for id := 1; id <= n; id++ {
		out = append(out, processed(id))
	}
	return out
}

func TestValidateBatchAllValid(t *testing.T) {
	results := fullBatch(500)
	integrity := ValidateBatch(results)

	assert.True(t, integrity.Clean())
	assert.Equal(t, len(results), integrity.Valid)
	assert.Empty(t, integrity.InvalidIDs)
}

func TestValidateBatchReportsCorruptedIDs(t *testing.T) {
	results := fullBatch(20)
	results[4].Checksum = 0  // id 5: checksum corrupted
	results[11].Value = 9999 // id 12: payload corrupted

	integrity := ValidateBatch(results)
	assert.False(t, integrity.Clean())
	assert.Equal(t, 18, integrity.Valid)
	assert.Equal(t, []int{5, 12}, integrity.InvalidIDs)
}

func TestValidateBatchStoredChecksumMismatch(t *testing.T) {
	rec := processed(12)
	rec.Checksum++
	integrity := ValidateBatch([]record.Record{rec})
	assert.Equal(t, 0, integrity.Valid)
	assert.Equal(t, []int{12}, integrity.InvalidIDs)
}

func TestCheckCompleteness(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func([]record.Record) []record.Record
		expected   int
		missing    []int
		duplicates []int
	}{
		{
			name:     "full uncorrupted set",
			mutate:   func(r []record.Record) []record.Record { return r },
			expected: 500,
		},
		{
			name: "missing 37 and duplicated 12",
			mutate: func(r []record.Record) []record.Record {
				out := make([]record.Record, 0, len(r))
				for _, rec := range r {
					if rec.ID == 37 {
						continue
					}
					out = append(out, rec)
					if rec.ID == 12 {
						out = append(out, rec)
					}
				}
				return out
			},
			expected:   500,
			missing:    []int{37},
			duplicates: []int{12},
		},
		{
			name:     "empty result set",
			mutate:   func([]record.Record) []record.Record { return nil },
			expected: 3,
			missing:  []int{1, 2, 3},
		},
		{
			name:     "zero expected",
			mutate:   func([]record.Record) []record.Record { return nil },
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := tt.mutate(fullBatch(500))
			completeness := CheckCompleteness(results, tt.expected)

			assert.Equal(t, tt.missing, completeness.Missing)
			assert.Equal(t, tt.duplicates, completeness.Duplicates)
			assert.Equal(t, tt.missing == nil && tt.duplicates == nil, completeness.Clean())
		})
	}
}

func TestCheckCompletenessSetsAreExactBeyondPreviewCap(t *testing.T) {
	// Drop 25 ids; the computed set must hold all of them, not just the
	// displayed prefix.
	var results []record.Record
	for id := 1; id <= 100; id++ {
		if id%4 == 0 {
			continue
		}
		results = append(results, processed(id))
	}

	completeness := CheckCompleteness(results, 100)
	assert.Len(t, completeness.Missing, 25)
	assert.Equal(t, 4, completeness.Missing[0])
	assert.Equal(t, 100, completeness.Missing[24])
}

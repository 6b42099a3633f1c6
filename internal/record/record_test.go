package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSeedsSequentialPayload(t *testing.T) {
	rec := New(42)
	assert.Equal(t, 42, rec.ID)
	assert.Equal(t, int64(420), rec.Value)
	assert.False(t, rec.Requeued)
	assert.Zero(t, rec.Hops)
	assert.False(t, rec.EnqueuedAt.IsZero())
}

func TestSumIsDeterministicAndIDBound(t *testing.T) {
	assert.Equal(t, Sum(7, 141), Sum(7, 141))
	assert.NotEqual(t, Sum(7, 141), Sum(8, 141))
	assert.NotEqual(t, Sum(7, 141), Sum(7, 142))
	// The separator keeps (1, 23) and (12, 3) distinct.
	assert.NotEqual(t, Sum(1, 23), Sum(12, 3))
}

func TestFinalValue(t *testing.T) {
	// Producer seeds id*10; the forward transform doubles and adds one.
	assert.Equal(t, int64(21), FinalValue(1))
	assert.Equal(t, int64(10001), FinalValue(500))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{
			name: "fully processed",
			rec:  Record{ID: 9, Value: FinalValue(9), Checksum: ExpectedSum(9)},
			want: true,
		},
		{
			name: "missing checksum",
			rec:  Record{ID: 9, Value: FinalValue(9)},
			want: false,
		},
		{
			name: "corrupted payload",
			rec:  Record{ID: 9, Value: 1, Checksum: ExpectedSum(9)},
			want: false,
		},
		{
			name: "checksum from wrong id",
			rec:  Record{ID: 9, Value: FinalValue(9), Checksum: ExpectedSum(10)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Verify())
		})
	}
}

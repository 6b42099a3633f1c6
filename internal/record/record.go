package record

import (
	"hash/fnv"
	"strconv"
	"time"
)

// Record is the unit of work flowing through the pipeline.
//
// A record is owned by exactly one stage (or channel buffer) at a time;
// ownership transfers on channel send. Records are passed by value, so a
// stage's mutations are invisible upstream.
type Record struct {
	// ID is unique per run, assigned sequentially by the producer in [1, N].
	ID int

	// Value is the payload mutated by stage transforms. The producer seeds
	// ID*10; Stage 2's forward transform yields the final ID*20+1.
	Value int64

	// Checksum is the verifiable property written by Stage 2 on forward,
	// recomputable by the auditor from ID alone.
	Checksum uint64

	// Requeued marks a record that has been routed through the feedback
	// channel. A record is requeued at most once.
	Requeued bool

	// Hops counts passes through Stage 1.
	Hops int

	// Source tags records seeded from a parsed input document.
	Source string

	// EnqueuedAt is set by the producer; Latency by Stage 3 on collection.
	EnqueuedAt time.Time
	Latency    time.Duration
}

// New creates a producer-fresh record for the given id.
func New(id int) Record {
	return Record{
		ID:         id,
		Value:      int64(id) * 10,
		EnqueuedAt: time.Now(),
	}
}

// Sum computes the checksum for an (id, value) pair: FNV-1a over the
// decimal encodings, separated by a colon.
func Sum(id int, value int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.Itoa(id)))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatInt(value, 10)))
	return h.Sum64()
}

// FinalValue returns the value a fully processed record must hold.
func FinalValue(id int) int64 {
	return int64(id)*20 + 1
}

// ExpectedSum returns the checksum a fully processed record must carry,
// derived from its id alone.
func ExpectedSum(id int) uint64 {
	return Sum(id, FinalValue(id))
}

// Verify reports whether the record was processed correctly: its value
// and checksum both match what full processing of its id must produce.
func (r Record) Verify() bool {
	return r.Value == FinalValue(r.ID) && r.Checksum == ExpectedSum(r.ID)
}

package mixer

import (
	"sync/atomic"

	"github.com/backline-audio/engine/internal/model"
)

// PositionUpdate is TopicPlaybackPosition's payload.
type PositionUpdate struct {
	SongID string
	Frames int64
}

// StateUpdate is TopicPlaybackState's payload.
type StateUpdate struct {
	SongID string
	State  model.TransportState
}

// LevelUpdate is TopicPlaybackLevels's payload: per-stem and master peak
// levels observed over the most recent telemetry interval.
type LevelUpdate struct {
	SongID      string
	StemPeaks   map[string]float32
	MasterPeakL float32
	MasterPeakR float32
}

// TelemetryEvent wraps whichever of the three payloads the audio thread
// published.
type TelemetryEvent struct {
	Position *PositionUpdate
	State    *StateUpdate
	Levels   *LevelUpdate
}

// Outbox is a bounded, drop-oldest SPSC ring from the audio thread (sole
// producer) to a control-thread drain loop (spec.md §4.D/§5). Publish is
// lock-free and allocation-free: it writes into a fixed slot and never
// blocks, satisfying the audio callback's real-time rules. Drain, which
// only ever runs off the audio thread, skips any slot the producer has
// since overwritten.
type Outbox struct {
	buf      []TelemetryEvent
	capacity uint64
	head     atomic.Uint64 // next write index, producer-owned
	tail     uint64        // last drained index, consumer-owned
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 256
	}
	return &Outbox{buf: make([]TelemetryEvent, capacity), capacity: uint64(capacity)}
}

// Publish is called from the audio thread only.
func (ob *Outbox) Publish(evt TelemetryEvent) {
	idx := ob.head.Add(1) - 1
	ob.buf[idx%ob.capacity] = evt
}

// Drain removes and returns every event published since the last Drain,
// oldest first. Called only from a control thread.
func (ob *Outbox) Drain() []TelemetryEvent {
	head := ob.head.Load()
	start := ob.tail
	if head-start > ob.capacity {
		start = head - ob.capacity // these slots were overwritten before we got to them
	}

	out := make([]TelemetryEvent, 0, head-start)
	for i := start; i < head; i++ {
		out = append(out, ob.buf[i%ob.capacity])
	}
	ob.tail = head
	return out
}

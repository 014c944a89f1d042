// Package events provides an asynchronous, in-process event bus that
// decouples the engine's internal components (Song Loader, Song Cache,
// Output Driver, Import Pipeline) from whatever relays events to the outside
// world (the Control Plane's websocket hub, spec.md §6.2). Nothing publishes
// the playback:* topics: the Mixer's telemetry stays in its Outbox.
package events

import "time"

// Topic names the kind of event published. These mirror spec.md §6.2's
// event surface one-for-one so the Control Plane can forward a Topic
// directly as a websocket message type.
type Topic string

const (
	TopicPlaybackPosition Topic = "playback:position"
	TopicPlaybackState    Topic = "playback:state"
	TopicPlaybackLevels   Topic = "playback:levels"
	TopicLoadProgress     Topic = "load:progress"
	TopicLoadComplete     Topic = "load:complete"
	TopicImportProgress   Topic = "import:progress"
	TopicPreloadProgress  Topic = "preload:progress"
	TopicPreloadComplete  Topic = "preload:complete"
	TopicCacheWarning     Topic = "cache:warning"
	TopicAudioError       Topic = "audio:error"
)

// Event is a single published message. Payload is topic-specific (see the
// producing component for its concrete type) and is never mutated after
// publish, so consumers may retain a reference safely.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Consumer receives events from the bus. Handle must not block for long —
// the bus invokes it from a fixed worker pool shared by all consumers.
type Consumer interface {
	Name() string
	Handle(Event)
}

// ConsumerFunc adapts a plain function to Consumer.
type ConsumerFunc struct {
	FuncName string
	Fn       func(Event)
}

func (c ConsumerFunc) Name() string    { return c.FuncName }
func (c ConsumerFunc) Handle(e Event)  { c.Fn(e) }

// Stats reports bus activity, as returned by Bus.Stats; it is not exported
// on the /metrics endpoint.
type Stats struct {
	EventsReceived uint64
	EventsDropped  uint64
	EventsHandled  uint64
	ConsumerPanics uint64
}

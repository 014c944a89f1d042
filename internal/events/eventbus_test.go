package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDropsWithoutConsumers(t *testing.T) {
	b := New(DefaultConfig())
	ok := b.TryPublish(TopicAudioError, "boom")
	assert.False(t, ok)
}

func TestPublishDispatchesToConsumer(t *testing.T) {
	b := New(Config{BufferSize: 8, Workers: 1})

	var mu sync.Mutex
	var got []Event
	require.NoError(t, b.RegisterConsumer(ConsumerFunc{
		FuncName: "collector",
		Fn: func(e Event) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, e)
		},
	}))

	require.True(t, b.TryPublish(TopicLoadComplete, "song-1"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Shutdown(time.Second))
}

func TestDuplicateConsumerNameRejected(t *testing.T) {
	b := New(DefaultConfig())
	c := ConsumerFunc{FuncName: "dup", Fn: func(Event) {}}
	require.NoError(t, b.RegisterConsumer(c))
	assert.Error(t, b.RegisterConsumer(c))
	_ = b.Shutdown(time.Second)
}

func TestDropsWhenBufferFull(t *testing.T) {
	b := New(Config{BufferSize: 1, Workers: 0})
	require.NoError(t, b.RegisterConsumer(ConsumerFunc{FuncName: "noop", Fn: func(Event) {
		time.Sleep(50 * time.Millisecond)
	}}))

	accepted := 0
	for i := 0; i < 10; i++ {
		if b.TryPublish(TopicPlaybackLevels, i) {
			accepted++
		}
	}
	assert.Less(t, accepted, 10)
	_ = b.Shutdown(time.Second)
}

package songcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/decoder"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/songloader"
)

type fakeLoader struct {
	calls        int32
	bytesPerSong int64
}

func (f *fakeLoader) Load(ctx context.Context, songID string) (*songloader.DecodedSong, error) {
	atomic.AddInt32(&f.calls, 1)
	frames := int(f.bytesPerSong / 4 / 2) // 2 channels, 4 bytes/float32
	return &songloader.DecodedSong{
		SongID: songID,
		Stems: map[string]songloader.DecodedStem{
			"stem-1": {Decoded: &decoder.DecodedStem{
				Samples:    make([]float32, frames*2),
				Frames:     frames,
				SampleRate: 48000,
			}},
		},
	}, nil
}

func TestGetOrLoadCachesAndPromotes(t *testing.T) {
	loader := &fakeLoader{bytesPerSong: 1024}
	bus := events.New(events.DefaultConfig())
	c := New(loader, bus, 1<<30)

	song1, err := c.GetOrLoad(context.Background(), "song-1")
	require.NoError(t, err)
	assert.Equal(t, "song-1", song1.SongID)

	song1Again, err := c.GetOrLoad(context.Background(), "song-1")
	require.NoError(t, err)
	assert.Same(t, song1, song1Again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loader.calls))
	_ = bus.Shutdown(0)
}

func TestGetOrLoadCoalescesConcurrentMisses(t *testing.T) {
	loader := &fakeLoader{bytesPerSong: 1024}
	bus := events.New(events.DefaultConfig())
	c := New(loader, bus, 1<<30)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrLoad(context.Background(), "song-shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&loader.calls))
	_ = bus.Shutdown(0)
}

func TestEvictionSkipsPinnedEntries(t *testing.T) {
	loader := &fakeLoader{bytesPerSong: 1000}
	bus := events.New(events.DefaultConfig())
	c := New(loader, bus, 1500) // fits ~1.5 songs

	_, err := c.GetOrLoad(context.Background(), "pinned-song")
	require.NoError(t, err)
	c.Pin("pinned-song")

	_, err = c.GetOrLoad(context.Background(), "evictable-song")
	require.NoError(t, err)

	stats := c.Stats()
	assert.LessOrEqual(t, stats.UsedBytes, stats.BudgetBytes)
	_ = bus.Shutdown(0)
}

func TestSetByteBudgetRaisesForPinnedSet(t *testing.T) {
	loader := &fakeLoader{bytesPerSong: 2000}
	bus := events.New(events.DefaultConfig())
	c := New(loader, bus, 1<<30)

	_, err := c.GetOrLoad(context.Background(), "big-song")
	require.NoError(t, err)
	c.Pin("big-song")

	c.SetByteBudget(100) // below the pinned song's size

	stats := c.Stats()
	assert.GreaterOrEqual(t, stats.BudgetBytes, stats.UsedBytes)
	_ = bus.Shutdown(0)
}

func TestClearRemovesOnlyUnpinned(t *testing.T) {
	loader := &fakeLoader{bytesPerSong: 1024}
	bus := events.New(events.DefaultConfig())
	c := New(loader, bus, 1<<30)

	_, err := c.GetOrLoad(context.Background(), "keep")
	require.NoError(t, err)
	c.Pin("keep")

	_, err = c.GetOrLoad(context.Background(), "drop")
	require.NoError(t, err)

	c.Clear()

	stats := c.Stats()
	assert.Equal(t, 1, stats.EntryCount)
	_ = bus.Shutdown(0)
}

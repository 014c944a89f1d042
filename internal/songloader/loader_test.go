package songloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/model"
)

func writeTestWAV(t *testing.T, path string, frames, sampleRate, channels int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:   make([]int, frames*channels),
	}
	for i := range buf.Data {
		buf.Data[i] = 1000
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

type fakeStore struct {
	song  *model.Song
	stems []model.Stem
	err   error
}

func (f *fakeStore) GetSong(id string) (*model.Song, error) { return f.song, f.err }
func (f *fakeStore) GetSongStems(songID string) ([]model.Stem, error) {
	return f.stems, f.err
}

func TestLoadAssemblesAllStems(t *testing.T) {
	dir := t.TempDir()
	vocalsPath := filepath.Join(dir, "vocals.wav")
	clickPath := filepath.Join(dir, "click.wav")
	writeTestWAV(t, vocalsPath, 4800, 48000, 2)
	writeTestWAV(t, clickPath, 4800, 48000, 1)

	store := &fakeStore{
		song: &model.Song{ID: "song-1", Name: "Test Song"},
		stems: []model.Stem{
			{ID: "stem-vocals", SongID: "song-1", FilePath: vocalsPath, DisplayOrder: 0},
			{ID: "stem-click", SongID: "song-1", FilePath: clickPath, DisplayOrder: 1},
		},
	}

	bus := events.New(events.DefaultConfig())
	loader := New(store, bus, Config{CanonicalSampleRate: 48000})

	result, err := loader.Load(context.Background(), "song-1")
	require.NoError(t, err)
	assert.Len(t, result.Stems, 2)
	assert.Contains(t, result.Stems, "stem-vocals")
	assert.Contains(t, result.Stems, "stem-click")
	assert.Equal(t, 48000, result.Stems["stem-click"].Decoded.SampleRate)
	assert.Equal(t, 4800, result.Stems["stem-click"].Decoded.Frames)
	_ = bus.Shutdown(0)
}

func TestLoadFailsWholeSongOnOneBadStem(t *testing.T) {
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "good.wav")
	writeTestWAV(t, goodPath, 4800, 48000, 2)

	store := &fakeStore{
		song: &model.Song{ID: "song-2"},
		stems: []model.Stem{
			{ID: "stem-good", SongID: "song-2", FilePath: goodPath},
			{ID: "stem-missing", SongID: "song-2", FilePath: filepath.Join(dir, "missing.wav")},
		},
	}

	bus := events.New(events.DefaultConfig())
	loader := New(store, bus, Config{CanonicalSampleRate: 48000})

	_, err := loader.Load(context.Background(), "song-2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindSongLoadFailed, apperr.KindOf(err))
	_ = bus.Shutdown(0)
}

func TestLoadRejectsSongWithNoStems(t *testing.T) {
	store := &fakeStore{song: &model.Song{ID: "song-3"}, stems: nil}
	bus := events.New(events.DefaultConfig())
	loader := New(store, bus, Config{CanonicalSampleRate: 48000})

	_, err := loader.Load(context.Background(), "song-3")
	require.Error(t, err)
	assert.Equal(t, apperr.KindSongLoadFailed, apperr.KindOf(err))
	_ = bus.Shutdown(0)
}

package importpipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/datastore"
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

func newTestStore(t *testing.T) *datastore.Store {
	t.Helper()
	store, err := datastore.Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestImportCreatesSongWithStems(t *testing.T) {
	store := newTestStore(t)
	p := New(store, nil)

	dir := t.TempDir()
	vocals := filepath.Join(dir, "lead_vocals.wav")
	click := filepath.Join(dir, "click.wav")
	writeTestWAV(t, vocals, 4800, 48000, 2)
	writeTestWAV(t, click, 4800, 48000, 1)

	songID, err := p.Import([]string{vocals, click}, "Great Is Thy Faithfulness", "Worship Band", "G", "4/4")
	require.NoError(t, err)
	require.NotEmpty(t, songID)

	song, err := store.GetSong(songID)
	require.NoError(t, err)
	assert.Equal(t, "Great Is Thy Faithfulness", song.Name)
	assert.Len(t, song.Stems, 2)

	var names []string
	for _, s := range song.Stems {
		names = append(names, s.DisplayName)
	}
	assert.Contains(t, names, "Vocals")
	assert.Contains(t, names, "Click")
}

func TestImportRejectsDuplicateContent(t *testing.T) {
	store := newTestStore(t)
	p := New(store, nil)

	dir := t.TempDir()
	stem := filepath.Join(dir, "bass.wav")
	writeTestWAV(t, stem, 4800, 48000, 2)

	_, err := p.Import([]string{stem}, "Song A", "", "", "")
	require.NoError(t, err)

	copyPath := filepath.Join(dir, "bass_copy.wav")
	data, err := os.ReadFile(stem)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(copyPath, data, 0o644))

	_, err = p.Import([]string{copyPath}, "Song B", "", "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateSource, apperr.KindOf(err))
}

func TestImportRollsBackOnPartialFailure(t *testing.T) {
	store := newTestStore(t)
	p := New(store, nil)

	dir := t.TempDir()
	good := filepath.Join(dir, "keys.wav")
	writeTestWAV(t, good, 4800, 48000, 2)
	missing := filepath.Join(dir, "does_not_exist.wav")

	_, err := p.Import([]string{good, missing}, "Partial Song", "", "", "")
	require.Error(t, err)

	songs, err := store.GetAllSongs()
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestImportRequiresAtLeastOneFile(t *testing.T) {
	store := newTestStore(t)
	p := New(store, nil)

	_, err := p.Import(nil, "Empty Import", "", "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

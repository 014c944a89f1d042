package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSong() *model.Song {
	return &model.Song{
		Name:   "Good Good Father",
		Artist: "Housefires",
		Key:    "G",
		Stems: []model.Stem{
			{DisplayName: "Vocals", FilePath: "/songs/ggf/vocals.wav", Channels: 2, DefaultGain: 1.0},
			{DisplayName: "Click", FilePath: "/songs/ggf/click.wav", Channels: 1, DefaultGain: 0.8},
		},
	}
}

func TestCreateAndGetSong(t *testing.T) {
	s := openTestStore(t)
	song := sampleSong()
	require.NoError(t, s.CreateSong(song))
	assert.NotEmpty(t, song.ID)

	got, err := s.GetSong(song.ID)
	require.NoError(t, err)
	assert.Equal(t, "Good Good Father", got.Name)
	assert.Len(t, got.Stems, 2)
}

func TestCreateSongRejectsBadGain(t *testing.T) {
	s := openTestStore(t)
	song := sampleSong()
	song.Stems[0].DefaultGain = 1.5
	err := s.CreateSong(song)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestCreateSongRejectsBadTempo(t *testing.T) {
	s := openTestStore(t)
	song := sampleSong()
	tempo := 500.0
	song.Tempo = &tempo
	err := s.CreateSong(song)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestDeleteSongCascadesStems(t *testing.T) {
	s := openTestStore(t)
	song := sampleSong()
	require.NoError(t, s.CreateSong(song))

	require.NoError(t, s.DeleteSong(song.ID))

	stems, err := s.GetSongStems(song.ID)
	require.NoError(t, err)
	assert.Empty(t, stems)

	_, err = s.GetSong(song.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDuplicateStemFilePathRejected(t *testing.T) {
	s := openTestStore(t)
	songA := sampleSong()
	require.NoError(t, s.CreateSong(songA))

	songB := &model.Song{
		Name: "Another Song",
		Stems: []model.Stem{
			{DisplayName: "Vocals", FilePath: songA.Stems[0].FilePath, Channels: 2, DefaultGain: 1.0},
		},
	}
	err := s.CreateSong(songB)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUniqueViolation, apperr.KindOf(err))
}

func TestDuplicateSetlistNameRejected(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateSetlist("Sunday AM")
	require.NoError(t, err)

	_, err = s.CreateSetlist("Sunday AM")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUniqueViolation, apperr.KindOf(err))
}

func TestFilterSongsByTempoRange(t *testing.T) {
	s := openTestStore(t)
	slow, fast := 70.0, 140.0
	s1 := &model.Song{Name: "Slow Song", Tempo: &slow}
	s2 := &model.Song{Name: "Fast Song", Tempo: &fast}
	require.NoError(t, s.CreateSong(s1))
	require.NoError(t, s.CreateSong(s2))

	min := 100.0
	results, err := s.FilterSongs(model.SongFilter{TempoMin: &min})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Fast Song", results[0].Name)
}

func TestSetlistReorderIsAtomicPermutation(t *testing.T) {
	s := openTestStore(t)
	sl, err := s.CreateSetlist("Evening Service")
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"Song A", "Song B", "Song C"} {
		song := &model.Song{Name: name}
		require.NoError(t, s.CreateSong(song))
		require.NoError(t, s.AddSongToSetlist(sl.ID, song.ID))
		ids = append(ids, song.ID)
	}

	reversed := []string{ids[2], ids[0], ids[1]}
	require.NoError(t, s.ReorderSetlistSongs(sl.ID, reversed))

	got, err := s.GetSetlist(sl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	for i, item := range got.Items {
		assert.Equal(t, reversed[i], item.SongID)
		assert.Equal(t, i, item.Position)
	}
}

func TestRemoveSongFromSetlistCompactsPositions(t *testing.T) {
	s := openTestStore(t)
	sl, err := s.CreateSetlist("Rehearsal")
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"One", "Two", "Three"} {
		song := &model.Song{Name: name}
		require.NoError(t, s.CreateSong(song))
		require.NoError(t, s.AddSongToSetlist(sl.ID, song.ID))
		ids = append(ids, song.ID)
	}

	require.NoError(t, s.RemoveSongFromSetlist(sl.ID, ids[0]))

	got, err := s.GetSetlist(sl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 0, got.Items[0].Position)
	assert.Equal(t, 1, got.Items[1].Position)
}

func TestAppSettingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SetSetting("theme", "dark"))

	v, err := s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.SetSetting("theme", "light"))
	v, err = s.GetSetting("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestOptimizeRespectsCancellation(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Optimize(ctx)
	require.Error(t, err)
}

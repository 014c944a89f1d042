package datastore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/model"
)

// validation ranges enforced at the store layer (spec.md §4.G).
const (
	tempoMin = 20.0
	tempoMax = 300.0
	gainMin  = 0.0
	gainMax  = 1.0
	rateMin  = 8000
	rateMax  = 192000
)

func validateStem(s *model.Stem) error {
	if s.Channels != 1 && s.Channels != 2 {
		return apperr.Newf("stem channels must be 1 or 2, got %d", s.Channels).
			Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
	}
	if s.DefaultGain < gainMin || s.DefaultGain > gainMax {
		return apperr.Newf("stem gain %f out of range [0,1]", s.DefaultGain).
			Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
	}
	if s.SampleRate != 0 && (s.SampleRate < rateMin || s.SampleRate > rateMax) {
		return apperr.Newf("stem sample_rate %d out of range [%d,%d]", s.SampleRate, rateMin, rateMax).
			Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
	}
	return nil
}

func validateTempo(tempo *float64) error {
	if tempo == nil {
		return nil
	}
	if *tempo < tempoMin || *tempo > tempoMax {
		return apperr.Newf("tempo %f out of range [%g,%g]", *tempo, tempoMin, tempoMax).
			Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
	}
	return nil
}

// CreateSong inserts song and all its stems in one transaction (spec.md
// §4.H import all-or-nothing, and §4.G song lifecycle).
func (s *Store) CreateSong(song *model.Song) error {
	if err := validateTempo(song.Tempo); err != nil {
		return err
	}
	for i := range song.Stems {
		if err := validateStem(&song.Stems[i]); err != nil {
			return err
		}
	}
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	now := time.Now()
	song.CreatedAt, song.UpdatedAt = now, now
	for i := range song.Stems {
		if song.Stems[i].ID == "" {
			song.Stems[i].ID = uuid.NewString()
		}
		song.Stems[i].SongID = song.ID
	}

	var maxStem float64
	for _, st := range song.Stems {
		if st.DurationSec > maxStem {
			maxStem = st.DurationSec
		}
	}
	song.DurationSec = maxStem

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(song).Error
	})
	return wrapGormErr(err, "create_song")
}

func (s *Store) GetSong(id string) (*model.Song, error) {
	var song model.Song
	err := s.DB.Preload("Stems").First(&song, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, "get_song")
	}
	return &song, nil
}

func (s *Store) GetAllSongs() ([]model.Song, error) {
	var songs []model.Song
	err := s.DB.Preload("Stems").Order("name").Find(&songs).Error
	return songs, wrapGormErr(err, "get_all_songs")
}

func (s *Store) GetSongStems(songID string) ([]model.Stem, error) {
	var stems []model.Stem
	err := s.DB.Where("song_id = ?", songID).Order("display_order").Find(&stems).Error
	return stems, wrapGormErr(err, "get_song_stems")
}

// StemExistsWithHash reports whether any stem already carries the given
// content fingerprint, used by the Import Pipeline's duplicate-ingest
// check (spec.md §4.H) before a new Song/Stem transaction is attempted.
func (s *Store) StemExistsWithHash(hash string) (bool, error) {
	var count int64
	err := s.DB.Model(&model.Stem{}).Where("content_hash = ?", hash).Count(&count).Error
	if err != nil {
		return false, wrapGormErr(err, "stem_exists_with_hash")
	}
	return count > 0, nil
}

// DeleteSong removes a song; foreign-key cascade removes its stems and
// setlist_items rows (spec.md §4.G, §6.3).
func (s *Store) DeleteSong(id string) error {
	err := s.DB.Select("Stems", "SetlistMemberships").Delete(&model.Song{ID: id}).Error
	return wrapGormErr(err, "delete_song")
}

// SearchSongs does a substring full-text-ish search over name/artist.
func (s *Store) SearchSongs(query string) ([]model.Song, error) {
	var songs []model.Song
	like := "%" + strings.ToLower(query) + "%"
	err := s.DB.Preload("Stems").
		Where("LOWER(name) LIKE ? OR LOWER(artist) LIKE ?", like, like).
		Order("name").Find(&songs).Error
	return songs, wrapGormErr(err, "search_songs")
}

// FilterSongs applies an optional text query, tempo range, key equality and
// sort order (spec.md §6.1 filter_songs).
func (s *Store) FilterSongs(f model.SongFilter) ([]model.Song, error) {
	q := s.DB.Preload("Stems").Model(&model.Song{})

	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(artist) LIKE ?", like, like)
	}
	if f.TempoMin != nil {
		q = q.Where("tempo >= ?", *f.TempoMin)
	}
	if f.TempoMax != nil {
		q = q.Where("tempo <= ?", *f.TempoMax)
	}
	if f.Key != "" {
		q = q.Where("`key` = ?", f.Key)
	}

	switch f.SortBy {
	case model.SortByArtist:
		q = q.Order("artist")
	case model.SortByTempo:
		q = q.Order("tempo")
	case model.SortByDuration:
		q = q.Order("duration_sec")
	case model.SortByDateAdded:
		q = q.Order("created_at")
	default:
		q = q.Order("name")
	}

	var songs []model.Song
	err := q.Find(&songs).Error
	return songs, wrapGormErr(err, "filter_songs")
}

// --- Setlists ---

func (s *Store) CreateSetlist(name string) (*model.Setlist, error) {
	sl := &model.Setlist{ID: uuid.NewString(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	err := s.DB.Create(sl).Error
	return sl, wrapGormErr(err, "create_setlist")
}

func (s *Store) GetSetlist(id string) (*model.Setlist, error) {
	var sl model.Setlist
	err := s.DB.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).First(&sl, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormErr(err, "get_setlist")
	}
	return &sl, nil
}

// RenameSetlist updates a setlist's display name, leaving membership and
// ordering untouched.
func (s *Store) RenameSetlist(id, name string) error {
	res := s.DB.Model(&model.Setlist{}).Where("id = ?", id).Updates(map[string]any{"name": name, "updated_at": time.Now()})
	if res.Error != nil {
		return wrapGormErr(res.Error, "rename_setlist")
	}
	if res.RowsAffected == 0 {
		return wrapGormErr(gorm.ErrRecordNotFound, "rename_setlist")
	}
	return nil
}

func (s *Store) GetAllSetlists() ([]model.Setlist, error) {
	var sls []model.Setlist
	err := s.DB.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).Order("name").Find(&sls).Error
	return sls, wrapGormErr(err, "get_all_setlists")
}

func (s *Store) DeleteSetlist(id string) error {
	err := s.DB.Select("Items").Delete(&model.Setlist{ID: id}).Error
	return wrapGormErr(err, "delete_setlist")
}

// AddSongToSetlist appends song to the end of setlist's ordered item list.
// No-op (idempotent) if song is already a member.
func (s *Store) AddSongToSetlist(setlistID, songID string) error {
	return wrapGormErr(s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.SetlistItem{}).Where("setlist_id = ? AND song_id = ?", setlistID, songID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		var maxPos int
		tx.Model(&model.SetlistItem{}).Where("setlist_id = ?", setlistID).Select("COALESCE(MAX(position), -1)").Scan(&maxPos)
		return tx.Create(&model.SetlistItem{SetlistID: setlistID, SongID: songID, Position: maxPos + 1}).Error
	}), "add_song_to_setlist")
}

// RemoveSongFromSetlist removes the membership and compacts positions so
// they remain a dense 0..n-1 permutation.
func (s *Store) RemoveSongFromSetlist(setlistID, songID string) error {
	return wrapGormErr(s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("setlist_id = ? AND song_id = ?", setlistID, songID).Delete(&model.SetlistItem{}).Error; err != nil {
			return err
		}
		return compactPositions(tx, setlistID)
	}), "remove_song_from_setlist")
}

func compactPositions(tx *gorm.DB, setlistID string) error {
	var items []model.SetlistItem
	if err := tx.Where("setlist_id = ?", setlistID).Order("position").Find(&items).Error; err != nil {
		return err
	}
	for i, it := range items {
		if it.Position != i {
			if err := tx.Model(&model.SetlistItem{}).
				Where("setlist_id = ? AND song_id = ?", setlistID, it.SongID).
				Update("position", i).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// ReorderSetlistSongs atomically rewrites the setlist's position column so
// it matches songIDs exactly (invariant 6, spec.md §8).
func (s *Store) ReorderSetlistSongs(setlistID string, songIDs []string) error {
	return wrapGormErr(s.DB.Transaction(func(tx *gorm.DB) error {
		var existing []model.SetlistItem
		if err := tx.Where("setlist_id = ?", setlistID).Find(&existing).Error; err != nil {
			return err
		}
		existingSet := make(map[string]bool, len(existing))
		for _, it := range existing {
			existingSet[it.SongID] = true
		}
		if len(songIDs) != len(existing) {
			return apperr.Newf("reorder song count %d does not match setlist membership %d", len(songIDs), len(existing)).
				Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
		}
		for _, id := range songIDs {
			if !existingSet[id] {
				return apperr.Newf("song %s is not a member of setlist %s", id, setlistID).
					Component(apperr.ComponentDatastore).Category(apperr.CategoryValidation).Kind(apperr.KindInvalidArgument).Build()
			}
		}
		// Bump into a non-colliding range first to dodge the
		// (setlist_id, position) unique constraint mid-rewrite.
		for i, id := range songIDs {
			if err := tx.Model(&model.SetlistItem{}).
				Where("setlist_id = ? AND song_id = ?", setlistID, id).
				Update("position", len(songIDs)+i).Error; err != nil {
				return err
			}
		}
		for i, id := range songIDs {
			if err := tx.Model(&model.SetlistItem{}).
				Where("setlist_id = ? AND song_id = ?", setlistID, id).
				Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	}), "reorder_setlist_songs")
}

// --- App settings ---

func (s *Store) GetSetting(key string) (string, error) {
	var row model.AppSetting
	err := s.DB.First(&row, "key = ?", key).Error
	if err != nil {
		return "", wrapGormErr(err, "get_setting")
	}
	return row.Value, nil
}

func (s *Store) SetSetting(key, value string) error {
	err := s.DB.Save(&model.AppSetting{Key: key, Value: value}).Error
	return wrapGormErr(err, fmt.Sprintf("set_setting:%s", key))
}

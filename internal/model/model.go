// Package model defines the engine's persistent and in-memory data shapes
// (spec.md §3): Song/Stem/Setlist live in the Metadata Store; DecodedSong
// and PlaybackState live only in memory.
package model

import "time"

// Song is a named multi-stem track.
type Song struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null;index"`
	Artist        string
	Key           string
	Tempo         *float64
	TimeSignature string
	DurationSec   float64
	MixdownPath   string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Stems []Stem `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`

	// SetlistMemberships cascades setlist_items deletion when the song
	// itself is deleted, so DeleteSong never leaves orphaned memberships
	// behind (spec.md §3, §6.3).
	SetlistMemberships []SetlistItem `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE"`
}

// Stem is one audio file belonging to a Song.
type Stem struct {
	ID           string `gorm:"primaryKey"`
	SongID       string `gorm:"not null;index"`
	DisplayName  string `gorm:"not null"`
	FilePath     string `gorm:"uniqueIndex;not null"`
	ContentHash  string `gorm:"index"` // sha256(first 1MiB) xor file size, duplicate-ingest detection (spec.md §4.H)
	FileSize     int64
	SampleRate   int
	Channels     int
	DurationSec  float64
	DefaultGain  float64 `gorm:"default:1.0"`
	DefaultMute  bool
	DisplayOrder int
}

// Setlist is an ordered, named list of songs.
type Setlist struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []SetlistItem `gorm:"foreignKey:SetlistID;constraint:OnDelete:CASCADE"`
}

// SetlistItem is one (setlist, song) membership with a dense position.
// (setlist_id, position) is additionally unique so two members of the same
// setlist can never occupy the same slot (spec.md §6.3); ReorderSetlistSongs
// bumps positions in two phases to avoid tripping this constraint mid-update.
type SetlistItem struct {
	SetlistID string `gorm:"primaryKey;uniqueIndex:idx_setlist_position,priority:1"`
	SongID    string `gorm:"primaryKey"`
	Position  int    `gorm:"not null;uniqueIndex:idx_setlist_position,priority:2"`
}

// AppSetting is a single key/value row in app_settings.
type AppSetting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Migration records a schema migration that has already been applied.
type Migration struct {
	ID        int `gorm:"primaryKey"`
	Name      string
	AppliedAt time.Time
}

// TransportState is the Mixer's playback state machine (spec.md §4.D).
type TransportState string

const (
	Stopped TransportState = "Stopped"
	Playing TransportState = "Playing"
	Paused  TransportState = "Paused"
)

// AudioSettings is persisted engine configuration (spec.md §3).
type AudioSettings struct {
	PreferredOutputDevice string
	BufferSizeFrames      int
	SampleRateHz          int
	Theme                 string
	CacheByteBudget       int64
}

// SortField names the allowed `sort_by` values for filter_songs (spec.md §6.1).
type SortField string

const (
	SortByName        SortField = "name"
	SortByArtist      SortField = "artist"
	SortByTempo       SortField = "tempo"
	SortByDuration    SortField = "duration"
	SortByDateAdded   SortField = "date_added"
)

// SongFilter captures filter_songs' optional parameters.
type SongFilter struct {
	Query    string
	TempoMin *float64
	TempoMax *float64
	Key      string
	SortBy   SortField
}

package controlplane

import "github.com/backline-audio/engine/internal/model"

type playSongRequest struct {
	SongID string `json:"song_id"`
}

type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

type masterVolumeRequest struct {
	Volume float32 `json:"v"`
}

type stemVolumeRequest struct {
	StemID string  `json:"stem_id"`
	Volume float32 `json:"v"`
}

type stemToggleRequest struct {
	StemID string `json:"stem_id"`
}

type importFilesRequest struct {
	Paths         []string `json:"paths"`
	Title         string   `json:"title"`
	Artist        string   `json:"artist,omitempty"`
	Key           string   `json:"key,omitempty"`
	TimeSignature string   `json:"time_signature,omitempty"`
}

type importFilesResponse struct {
	SongID string `json:"song_id"`
}

type createSetlistRequest struct {
	Name string `json:"name"`
}

type updateSetlistRequest struct {
	Name    string   `json:"name"`
	SongIDs []string `json:"song_ids"`
}

type addSongRequest struct {
	SongID string `json:"song_id"`
}

type reorderRequest struct {
	SongIDs []string `json:"song_ids"`
}

type switchDeviceRequest struct {
	Name string `json:"name"`
}

type bufferSizeRequest struct {
	Frames int `json:"frames"`
}

type sampleRateRequest struct {
	Hz int `json:"hz"`
}

type cacheSizeRequest struct {
	Bytes int64 `json:"bytes"`
}

type cacheStatsResponse struct {
	Entries     int   `json:"entries"`
	UsedBytes   int64 `json:"used_bytes"`
	BudgetBytes int64 `json:"budget_bytes"`
}

type filterSongsRequest struct {
	Query    string          `json:"query"`
	TempoMin *float64        `json:"tempo_min"`
	TempoMax *float64        `json:"tempo_max"`
	Key      string          `json:"key"`
	SortBy   model.SortField `json:"sort_by"`
}

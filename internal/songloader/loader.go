// Package songloader orchestrates parallel decode of every stem belonging
// to one song (spec.md §4.B, Component B).
package songloader

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/cpuspec"
	"github.com/backline-audio/engine/internal/decoder"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/model"
)

var log = logging.ForService("songloader")

// StemStore is the subset of the Metadata Store the loader needs.
type StemStore interface {
	GetSong(id string) (*model.Song, error)
	GetSongStems(songID string) ([]model.Stem, error)
}

// DecodedStem pairs a stem's metadata with its materialized PCM.
type DecodedStem struct {
	Stem    model.Stem
	Decoded *decoder.DecodedStem
}

// DecodedSong is the fully-loaded, ready-to-mix result of a load, keyed by
// stem id as spec.md §4.B requires ("assembled into a DecodedSong keyed by
// stem id").
type DecodedSong struct {
	SongID string
	Song   model.Song
	Stems  map[string]DecodedStem
}

// LoadProgress is TopicLoadProgress's payload.
type LoadProgress struct {
	SongID  string
	Current int
	Total   int
}

// LoadComplete is TopicLoadComplete's payload.
type LoadComplete struct {
	SongID string
}

// Loader fetches a song's stems from the store and decodes them concurrently.
type Loader struct {
	store         StemStore
	bus           *events.Bus
	canonicalRate int
	poolSize      int
}

// Config configures a Loader.
type Config struct {
	CanonicalSampleRate int
	PoolSize            int // 0 selects cpuspec's recommended worker count
}

func New(store StemStore, bus *events.Bus, cfg Config) *Loader {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = cpuspec.GetCPUSpec().GetOptimalThreadCount()
		if poolSize <= 0 {
			poolSize = 4
		}
	}
	log.Info("song loader initialized", "pool_size", poolSize, "canonical_rate", cfg.CanonicalSampleRate)
	return &Loader{store: store, bus: bus, canonicalRate: cfg.CanonicalSampleRate, poolSize: poolSize}
}

// Load decodes every stem of songID across a bounded worker pool. Stem
// decode order is irrelevant; a single stem failure aborts the whole load
// (spec.md §4.B). ctx cancellation is polled between stems, never mid-stem
// (spec.md §5).
func (l *Loader) Load(ctx context.Context, songID string) (*DecodedSong, error) {
	song, err := l.store.GetSong(songID)
	if err != nil {
		return nil, err
	}
	stems, err := l.store.GetSongStems(songID)
	if err != nil {
		return nil, err
	}
	if len(stems) == 0 {
		return nil, apperr.Newf("song %s has no stems", songID).
			Component(apperr.ComponentSongLoader).
			Category(apperr.CategoryDecode).
			Kind(apperr.KindSongLoadFailed).
			Context("song_id", songID).
			Build()
	}

	// deterministic ordering in case stem decode order ever matters for
	// progress reporting.
	sort.Slice(stems, func(i, j int) bool { return stems[i].DisplayOrder < stems[j].DisplayOrder })

	results := make([]DecodedStem, len(stems))
	var completed int64
	total := len(stems)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.poolSize)

	for i, stem := range stems {
		i, stem := i, stem
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decoded, err := decoder.Decode(stem.FilePath, l.canonicalRate)
			if err != nil {
				return apperr.New(err).
					Component(apperr.ComponentSongLoader).
					Category(apperr.CategoryDecode).
					Kind(apperr.KindSongLoadFailed).
					Context("song_id", songID).
					Context("stem_id", stem.ID).
					Build()
			}
			results[i] = DecodedStem{Stem: stem, Decoded: decoded}

			n := atomic.AddInt64(&completed, 1)
			l.bus.TryPublish(events.TopicLoadProgress, LoadProgress{SongID: songID, Current: int(n), Total: total})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("song load failed", "song_id", songID, "error", err)
		return nil, err
	}

	out := &DecodedSong{SongID: songID, Song: *song, Stems: make(map[string]DecodedStem, len(results))}
	for _, r := range results {
		out.Stems[r.Stem.ID] = r
	}

	l.bus.TryPublish(events.TopicLoadComplete, LoadComplete{SongID: songID})
	log.Info("song loaded", "song_id", songID, "stem_count", total)
	return out, nil
}

// Package importpipeline implements the Import Pipeline (spec.md §4.H):
// grouping a set of source files into one new Song's Stems, extracting
// per-file format metadata, rejecting duplicate ingests, and persisting
// the result transactionally.
package importpipeline

import (
	"path/filepath"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/datastore"
	"github.com/backline-audio/engine/internal/decoder"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/model"
)

var log = logging.ForService("importpipeline")

// Pipeline is the Control Plane's Importer (internal/controlplane.Importer).
type Pipeline struct {
	store *datastore.Store
	bus   *events.Bus
}

func New(store *datastore.Store, bus *events.Bus) *Pipeline {
	return &Pipeline{store: store, bus: bus}
}

// Import groups paths as stems of one new song, all-or-nothing.
// title/artist/key/timeSignature, if empty, fall back to an optional
// manifest.json sidecar's values before defaulting to the zero value; a
// title is still required after that fallback. Tempo comes only from the
// manifest.
func (p *Pipeline) Import(paths []string, title, artist, key, timeSignature string) (string, error) {
	if len(paths) == 0 {
		return "", apperr.Newf("import requires at least one file").
			Component(apperr.ComponentImport).Category(apperr.CategoryValidation).
			Kind(apperr.KindInvalidArgument).Build()
	}

	defaults := readManifest(paths[0])
	if title == "" {
		title = defaults.Title
	}
	if artist == "" {
		artist = defaults.Artist
	}
	if key == "" {
		key = defaults.Key
	}
	if timeSignature == "" {
		timeSignature = defaults.TimeSignature
	}
	if title == "" {
		return "", apperr.Newf("import requires a title").
			Component(apperr.ComponentImport).Category(apperr.CategoryValidation).
			Kind(apperr.KindInvalidArgument).Build()
	}

	stems := make([]model.Stem, 0, len(paths))
	for i, path := range paths {
		stem, err := p.probeStem(path, i)
		if err != nil {
			return "", err
		}
		stems = append(stems, stem)
		p.publishProgress(title, i+1, len(paths))
	}

	song := &model.Song{
		Name:          title,
		Artist:        artist,
		Key:           key,
		TimeSignature: timeSignature,
		Tempo:         defaults.Tempo,
		Stems:         stems,
	}
	if err := p.store.CreateSong(song); err != nil {
		return "", err
	}

	return song.ID, nil
}

func (p *Pipeline) probeStem(path string, order int) (model.Stem, error) {
	hash, size, err := fingerprint(path)
	if err != nil {
		return model.Stem{}, apperr.New(err).
			Component(apperr.ComponentImport).Category(apperr.CategoryImport).
			Kind(apperr.KindFileNotFound).FileContext(path, 0).Build()
	}

	exists, err := p.store.StemExistsWithHash(hash)
	if err != nil {
		return model.Stem{}, err
	}
	if exists {
		return model.Stem{}, apperr.Newf("%s duplicates a previously imported stem", filepath.Base(path)).
			Component(apperr.ComponentImport).Category(apperr.CategoryImport).
			Kind(apperr.KindDuplicateSource).FileContext(path, size).Build()
	}

	native, err := decoder.ProbeNative(path)
	if err != nil {
		return model.Stem{}, err
	}

	return model.Stem{
		DisplayName:  synthesizeStemName(path),
		FilePath:     path,
		ContentHash:  hash,
		FileSize:     size,
		SampleRate:   native.SampleRate,
		Channels:     native.Channels,
		DurationSec:  native.DurationSec,
		DefaultGain:  1.0,
		DisplayOrder: order,
	}, nil
}

func (p *Pipeline) publishProgress(title string, current, total int) {
	if p.bus == nil {
		return
	}
	p.bus.TryPublish(events.TopicImportProgress, ProgressUpdate{
		Title: title, Current: current, Total: total,
	})
}

// ProgressUpdate is TopicImportProgress's payload.
type ProgressUpdate struct {
	Title   string
	Current int
	Total   int
}

package importpipeline

import (
	"os"
	"path/filepath"

	"github.com/antonholmquist/jason"
)

// manifestDefaults is what an optional manifest.json sidecar can prefill
// (SPEC_FULL.md §12.1); caller-supplied arguments to Import always win over
// these.
type manifestDefaults struct {
	Title         string
	Artist        string
	Key           string
	TimeSignature string
	Tempo         *float64
}

// readManifest looks for manifest.json next to the first stem path and
// parses whichever of the recognized fields it contains. A missing file is
// not an error; a present-but-unparsable one is logged and ignored, since
// the manifest is a convenience, not a required input.
func readManifest(firstStemPath string) manifestDefaults {
	dir := filepath.Dir(firstStemPath)
	manifestPath := filepath.Join(dir, "manifest.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return manifestDefaults{}
	}

	obj, err := jason.NewObjectFromBytes(data)
	if err != nil {
		log.Warn("manifest.json present but not valid JSON, ignoring", "path", manifestPath, "error", err)
		return manifestDefaults{}
	}

	var d manifestDefaults
	if v, err := obj.GetString("title"); err == nil {
		d.Title = v
	}
	if v, err := obj.GetString("artist"); err == nil {
		d.Artist = v
	}
	if v, err := obj.GetString("key"); err == nil {
		d.Key = v
	}
	if v, err := obj.GetString("time_signature"); err == nil {
		d.TimeSignature = v
	}
	if v, err := obj.GetFloat64("tempo"); err == nil {
		d.Tempo = &v
	}
	return d
}

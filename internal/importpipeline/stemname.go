package importpipeline

import (
	"strings"
)

// stemKeywords maps recognized tokens in a stem's filename to its
// synthesized display name (spec.md §4.H, SPEC_FULL.md §12.2). Checked in
// order so more specific tokens (e.g. "backing vocals") could be added
// ahead of broader ones without reordering callers.
var stemKeywords = []struct {
	token string
	name  string
}{
	{"vocal", "Vocals"},
	{"vox", "Vocals"},
	{"drum", "Drums"},
	{"bass", "Bass"},
	{"keys", "Keys"},
	{"piano", "Keys"},
	{"guitar", "Guitar"},
	{"gtr", "Guitar"},
	{"click", "Click"},
	{"metronome", "Click"},
	{"aux", "Aux"},
	{"fx", "FX"},
	{"synth", "Synth"},
	{"string", "Strings"},
	{"horn", "Horns"},
	{"brass", "Horns"},
}

// synthesizeStemName derives a human-readable stem name from a source
// filename by matching a known keyword; falls back to the filename stem
// (extension and path stripped) title-cased when nothing matches.
func synthesizeStemName(filename string) string {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	lower := strings.ToLower(base)

	for _, kw := range stemKeywords {
		if strings.Contains(lower, kw.token) {
			return kw.name
		}
	}

	return titleCase(strings.ReplaceAll(strings.ReplaceAll(base, "_", " "), "-", " "))
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == "" {
			continue
		}
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

// conf/consts.go hard coded constants
package conf

const (
	// DefaultCanonicalSampleRate is the rate every decoded stem is resampled
	// to before it reaches the Mixer (spec.md §4.A).
	DefaultCanonicalSampleRate = 48000

	// DefaultBufferSizeFrames is the Mixer/Output Driver's default device
	// buffer size in frames (spec.md §4.D/§4.E).
	DefaultBufferSizeFrames = 512

	// DefaultCacheBudgetFloorBytes is the floor applied to the Song Cache's
	// heuristic byte budget regardless of installed RAM (spec.md §4.C).
	DefaultCacheBudgetFloorBytes = 256 * 1024 * 1024

	// DefaultCacheBudgetRAMFraction is the fraction of system RAM used to
	// derive the default cache budget when the operator hasn't set one.
	DefaultCacheBudgetRAMFraction = 0.10

	MinTempo = 20.0
	MaxTempo = 300.0
)

// Package mixer is the engine's real-time core (spec.md §4.D, Component D):
// it owns PlaybackState exclusively on the audio thread and exposes it to
// the rest of the engine only through the lock-free Inbox/Outbox pair.
package mixer

import (
	"time"

	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/model"
	"github.com/backline-audio/engine/internal/songloader"
)

var log = logging.ForService("mixer")

const (
	canonicalChannels = 2
	inboxDrainBudget  = 64
	// gainRampFrames bounds a parameter change to at most one buffer of
	// linear interpolation (spec.md §4.D glitch policy).
	gainRampFrames      = 512
	telemetryInterval   = 50 * time.Millisecond
)

// stemState is the audio thread's private runtime state for one stem —
// never touched from any other goroutine.
type stemState struct {
	id          string
	stem        *songloader.DecodedStem
	gain        float32
	targetGain  float32
	rampStep    float32
	rampLeft    int
	mute        bool
	solo        bool
	peak        float32
}

// Mixer is the audio engine's real-time core. Construct one per output
// stream; Render is called from the Output Driver's device callback.
type Mixer struct {
	Inbox   *Inbox
	Outbox  *Outbox

	songID       string
	stems        []*stemState
	stemsByID    map[string]*stemState
	totalFrames  int64
	position     int64
	state        model.TransportState
	masterGain   float32

	lastTelemetry time.Time
	cmdScratch    []Command

	// peakScratch is a small ring of preallocated maps rotated across
	// telemetry emissions. A single shared map would let this call's
	// clear-and-refill race with a consumer still reading the previous,
	// not-yet-drained LevelUpdate out of the Outbox.
	peakScratch    [peakScratchRingSize]map[string]float32
	peakScratchIdx int
}

const peakScratchRingSize = 8

func New() *Mixer {
	m := &Mixer{
		Inbox:      NewInbox(1024),
		Outbox:     NewOutbox(256),
		state:      model.Stopped,
		masterGain: 1.0,
		cmdScratch: make([]Command, 0, inboxDrainBudget),
	}
	for i := range m.peakScratch {
		m.peakScratch[i] = make(map[string]float32, 16)
	}
	return m
}

// --- Control-thread-facing command helpers ---
// Each of these just enqueues onto the Inbox; none touch PlaybackState
// directly (spec.md §5: PlaybackState is owned exclusively by the audio
// thread).

func (m *Mixer) LoadSong(song *songloader.DecodedSong) bool {
	return m.Inbox.Submit(Command{Kind: CmdLoadSong, NewSong: song})
}

func (m *Mixer) Play() bool { return m.Inbox.Submit(Command{Kind: CmdPlay}) }

func (m *Mixer) Pause() bool { return m.Inbox.Submit(Command{Kind: CmdPause}) }

func (m *Mixer) Stop() bool { return m.Inbox.Submit(Command{Kind: CmdStop}) }

func (m *Mixer) Seek(frames int64) bool { return m.Inbox.Submit(Command{Kind: CmdSeek, Seek: frames}) }

func (m *Mixer) SetStemGain(stemID string, gain float32) bool {
	return m.Inbox.Submit(Command{Kind: CmdSetStemGain, StemID: stemID, Gain: gain})
}

func (m *Mixer) SetStemMute(stemID string, mute bool) bool {
	return m.Inbox.Submit(Command{Kind: CmdSetStemMute, StemID: stemID, Mute: mute})
}

func (m *Mixer) SetStemSolo(stemID string, solo bool) bool {
	return m.Inbox.Submit(Command{Kind: CmdSetStemSolo, StemID: stemID, Solo: solo})
}

func (m *Mixer) SetMasterGain(gain float32) bool {
	return m.Inbox.Submit(Command{Kind: CmdSetMasterGain, Gain: gain})
}

// Render fills out (frames*2 interleaved stereo float32 samples) from the
// currently loaded song. Called from the audio thread; must not allocate,
// lock, or block (spec.md §4.D real-time rules) beyond what Inbox/Outbox
// already guarantee.
func (m *Mixer) Render(out []float32, frames int) {
	m.cmdScratch = m.cmdScratch[:0]
	m.cmdScratch = m.Inbox.Drain(inboxDrainBudget, m.cmdScratch)
	for _, cmd := range m.cmdScratch {
		m.apply(cmd)
	}

	if m.state != model.Playing || m.totalFrames == 0 {
		zero(out)
		return
	}

	anySolo := false
	for _, s := range m.stems {
		if s.solo {
			anySolo = true
			break
		}
	}

	var masterPeakL, masterPeakR float32

	remaining := frames
	framesPlayed := 0
	stop := false

	for i := 0; i < frames; i++ {
		if m.position >= m.totalFrames {
			stop = true
			break
		}

		var accL, accR float32
		for _, s := range m.stems {
			eff := s.nextEffectiveGain(anySolo)
			idx := int(m.position) * canonicalChannels
			if idx+1 >= len(s.stem.Samples) {
				continue
			}
			l := s.stem.Samples[idx] * eff
			r := s.stem.Samples[idx+1] * eff
			accL += l
			accR += r

			abs := l
			if abs < 0 {
				abs = -abs
			}
			if r > abs {
				abs = r
			} else if -r > abs {
				abs = -r
			}
			if abs > s.peak {
				s.peak = abs
			}
		}

		accL *= m.masterGain
		accR *= m.masterGain
		accL = clamp(accL, -1, 1)
		accR = clamp(accR, -1, 1)

		out[i*canonicalChannels] = accL
		out[i*canonicalChannels+1] = accR

		if al := absf(accL); al > masterPeakL {
			masterPeakL = al
		}
		if ar := absf(accR); ar > masterPeakR {
			masterPeakR = ar
		}

		m.position++
		framesPlayed++
	}

	remaining -= framesPlayed
	if remaining > 0 {
		zero(out[framesPlayed*canonicalChannels:])
	}

	if stop {
		m.state = model.Stopped
		m.position = 0
		m.Outbox.Publish(TelemetryEvent{State: &StateUpdate{SongID: m.songID, State: model.Stopped}})
	}

	m.maybeEmitTelemetry(masterPeakL, masterPeakR)
}

// maybeEmitTelemetry rotates through m.peakScratch rather than allocating a
// fresh map each time — Render must stay allocation-free on the audio
// thread even while the ~50ms telemetry gate is open.
func (m *Mixer) maybeEmitTelemetry(peakL, peakR float32) {
	now := time.Now()
	if now.Sub(m.lastTelemetry) < telemetryInterval {
		return
	}
	m.lastTelemetry = now

	peaks := m.peakScratch[m.peakScratchIdx]
	m.peakScratchIdx = (m.peakScratchIdx + 1) % peakScratchRingSize
	for k := range peaks {
		delete(peaks, k)
	}
	for _, s := range m.stems {
		peaks[s.id] = s.peak
		s.peak = 0
	}

	m.Outbox.Publish(TelemetryEvent{Position: &PositionUpdate{SongID: m.songID, Frames: m.position}})
	m.Outbox.Publish(TelemetryEvent{Levels: &LevelUpdate{
		SongID: m.songID, StemPeaks: peaks, MasterPeakL: peakL, MasterPeakR: peakR,
	}})
}

func (m *Mixer) apply(cmd Command) {
	switch cmd.Kind {
	case CmdLoadSong:
		m.loadSong(cmd.NewSong)
	case CmdPlay:
		if m.state == model.Stopped {
			m.position = 0
		}
		m.state = model.Playing
		m.Outbox.Publish(TelemetryEvent{State: &StateUpdate{SongID: m.songID, State: model.Playing}})
	case CmdPause:
		m.state = model.Paused
		m.Outbox.Publish(TelemetryEvent{State: &StateUpdate{SongID: m.songID, State: model.Paused}})
	case CmdStop:
		m.state = model.Stopped
		m.position = 0
		m.Outbox.Publish(TelemetryEvent{State: &StateUpdate{SongID: m.songID, State: model.Stopped}})
	case CmdSeek:
		pos := cmd.Seek
		if pos < 0 {
			pos = 0
		}
		if pos > m.totalFrames {
			pos = m.totalFrames
		}
		m.position = pos
	case CmdSetStemGain:
		if s, ok := m.stemsByID[cmd.StemID]; ok {
			s.startRamp(cmd.Gain)
		}
	case CmdSetStemMute:
		if s, ok := m.stemsByID[cmd.StemID]; ok {
			s.mute = cmd.Mute
		}
	case CmdSetStemSolo:
		if s, ok := m.stemsByID[cmd.StemID]; ok {
			s.solo = cmd.Solo
		}
	case CmdSetMasterGain:
		m.masterGain = cmd.Gain
	}
}

// loadSong installs a new decoded song. Transport is forced to Stopped and
// position reset to 0 regardless of prior state (spec.md §4.D).
func (m *Mixer) loadSong(song *songloader.DecodedSong) {
	m.songID = song.SongID
	m.state = model.Stopped
	m.position = 0
	m.lastTelemetry = time.Time{}

	stems := make([]*stemState, 0, len(song.Stems))
	byID := make(map[string]*stemState, len(song.Stems))
	var maxFrames int64
	for id, ds := range song.Stems {
		st := &stemState{
			id:         id,
			stem:       ds.Decoded,
			gain:       float32(ds.Stem.DefaultGain),
			targetGain: float32(ds.Stem.DefaultGain),
			mute:       ds.Stem.DefaultMute,
		}
		stems = append(stems, st)
		byID[id] = st
		if int64(ds.Decoded.Frames) > maxFrames {
			maxFrames = int64(ds.Decoded.Frames)
		}
	}
	m.stems = stems
	m.stemsByID = byID
	m.totalFrames = maxFrames

	m.Outbox.Publish(TelemetryEvent{State: &StateUpdate{SongID: m.songID, State: model.Stopped}})
}

// startRamp begins a ≤1-buffer linear ramp toward target (spec.md §4.D
// glitch policy).
func (s *stemState) startRamp(target float32) {
	s.targetGain = target
	s.rampLeft = gainRampFrames
	s.rampStep = (target - s.gain) / float32(gainRampFrames)
}

// nextEffectiveGain advances the ramp by one frame and returns the
// mute/solo-adjusted gain to apply (spec.md §4.D step 3).
func (s *stemState) nextEffectiveGain(anySolo bool) float32 {
	if s.rampLeft > 0 {
		s.gain += s.rampStep
		s.rampLeft--
		if s.rampLeft == 0 {
			s.gain = s.targetGain
		}
	}
	if s.mute || (anySolo && !s.solo) {
		return 0
	}
	return s.gain
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

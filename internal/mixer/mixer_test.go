package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/decoder"
	"github.com/backline-audio/engine/internal/model"
	"github.com/backline-audio/engine/internal/songloader"
)

func constantStem(frames int, l, r float32) *decoder.DecodedStem {
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = l
		samples[i*2+1] = r
	}
	return &decoder.DecodedStem{Samples: samples, Frames: frames, SampleRate: 48000}
}

func twoStemSong(frames int) *songloader.DecodedSong {
	return &songloader.DecodedSong{
		SongID: "song-1",
		Stems: map[string]songloader.DecodedStem{
			"click": {Stem: model.Stem{ID: "click", DefaultGain: 1.0}, Decoded: constantStem(frames, 0.5, 0.5)},
			"vox":   {Stem: model.Stem{ID: "vox", DefaultGain: 1.0}, Decoded: constantStem(frames, 0.25, 0.25)},
		},
	}
}

func drainState(m *Mixer) *model.TransportState {
	var last *model.TransportState
	for _, evt := range m.Outbox.Drain() {
		if evt.State != nil {
			s := evt.State.State
			last = &s
		}
	}
	return last
}

func TestLoadSongForcesStoppedAndResetsPosition(t *testing.T) {
	m := New()
	require.True(t, m.LoadSong(twoStemSong(1000)))
	m.Render(make([]float32, 128*2), 128)
	require.Equal(t, model.Stopped, m.state)
	require.Equal(t, int64(0), m.position)
}

func TestPlayAdvancesPositionAndMixesStems(t *testing.T) {
	m := New()
	require.True(t, m.LoadSong(twoStemSong(1000)))
	m.Render(make([]float32, 2), 1) // apply load
	require.True(t, m.Play())

	out := make([]float32, 10*2)
	m.Render(out, 10)

	assert.Equal(t, int64(10), m.position)
	assert.InDelta(t, 0.75, out[0], 0.0001) // 0.5 + 0.25, both gains 1.0, master 1.0
	assert.InDelta(t, 0.75, out[1], 0.0001)
}

func TestPauseStopsAdvancingPosition(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(1000))
	m.Render(make([]float32, 2), 1)
	m.Play()
	m.Render(make([]float32, 20), 10)
	require.True(t, m.Pause())

	m.Render(make([]float32, 2), 1) // apply pause
	posBefore := m.position
	m.Render(make([]float32, 20), 10)
	assert.Equal(t, posBefore, m.position)
}

func TestStopResetsPositionToZero(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(1000))
	m.Render(make([]float32, 2), 1)
	m.Play()
	m.Render(make([]float32, 20), 10)
	require.True(t, m.Stop())
	m.Render(make([]float32, 2), 1)
	assert.Equal(t, int64(0), m.position)
	assert.Equal(t, model.Stopped, m.state)
}

func TestAutoStopAtSongEndEmitsStateUpdate(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(5))
	m.Render(make([]float32, 2), 1)
	m.Play()
	m.Render(make([]float32, 2), 1) // apply play

	out := make([]float32, 20*2)
	m.Render(out, 20) // way past the 5-frame song

	assert.Equal(t, model.Stopped, m.state)
	assert.Equal(t, int64(0), m.position)
	for i := 5 * 2; i < len(out); i++ {
		assert.Equal(t, float32(0), out[i])
	}

	last := drainState(m)
	require.NotNil(t, last)
	assert.Equal(t, model.Stopped, *last)
}

func TestMuteSilencesStem(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(100))
	m.Render(make([]float32, 2), 1)
	m.Play()
	require.True(t, m.SetStemMute("vox", true))
	m.Render(make([]float32, 2), 1) // apply mute

	out := make([]float32, 2)
	m.Render(out, 1)
	assert.InDelta(t, 0.5, out[0], 0.0001) // only click remains
}

func TestSoloMutesNonSoloedStems(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(100))
	m.Render(make([]float32, 2), 1)
	m.Play()
	require.True(t, m.SetStemSolo("click", true))
	m.Render(make([]float32, 2), 1) // apply solo

	out := make([]float32, 2)
	m.Render(out, 1)
	assert.InDelta(t, 0.5, out[0], 0.0001) // click only, vox silenced by anySolo
}

func TestMasterGainScalesOutput(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(100))
	m.Render(make([]float32, 2), 1)
	m.Play()
	require.True(t, m.SetMasterGain(0.5))
	m.Render(make([]float32, 2), 1) // apply gain

	out := make([]float32, 2)
	m.Render(out, 1)
	assert.InDelta(t, 0.375, out[0], 0.0001) // 0.75 * 0.5
}

func TestOutputClampsToUnitRange(t *testing.T) {
	m := New()
	song := &songloader.DecodedSong{
		SongID: "loud",
		Stems: map[string]songloader.DecodedStem{
			"a": {Stem: model.Stem{ID: "a", DefaultGain: 1.0}, Decoded: constantStem(10, 0.9, 0.9)},
			"b": {Stem: model.Stem{ID: "b", DefaultGain: 1.0}, Decoded: constantStem(10, 0.9, 0.9)},
		},
	}
	m.LoadSong(song)
	m.Render(make([]float32, 2), 1)
	m.Play()
	m.Render(make([]float32, 2), 1)

	out := make([]float32, 2)
	m.Render(out, 1)
	assert.Equal(t, float32(1), out[0])
	assert.Equal(t, float32(1), out[1])
}

func TestStemGainRampCompletesWithinOneBuffer(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(gainRampFrames + 100))
	m.Render(make([]float32, 2), 1)
	m.Play()
	require.True(t, m.SetStemGain("click", 0))
	m.Render(make([]float32, 2), 1) // apply gain change

	out := make([]float32, gainRampFrames*2)
	m.Render(out, gainRampFrames)

	last := out[(gainRampFrames-1)*2]
	assert.InDelta(t, 0.25, last, 0.001) // click fully ramped to 0, only vox (0.25) remains
}

func TestSeekClampsToSongBounds(t *testing.T) {
	m := New()
	m.LoadSong(twoStemSong(100))
	m.Render(make([]float32, 2), 1)
	require.True(t, m.Seek(-10))
	m.Render(make([]float32, 2), 1)
	assert.Equal(t, int64(0), m.position)

	require.True(t, m.Seek(10000))
	m.Render(make([]float32, 2), 1)
	assert.Equal(t, int64(100), m.position)
}

func TestRenderWithNoSongLoadedZerosOutput(t *testing.T) {
	m := New()
	out := make([]float32, 20)
	for i := range out {
		out[i] = 1
	}
	m.Render(out, 10)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestInboxOverflowCoalescesStemGain(t *testing.T) {
	ib := NewInbox(4)
	for i := 0; i < 4; i++ {
		require.True(t, ib.Submit(Command{Kind: CmdSetMasterGain, Gain: float32(i)}))
	}
	ok := ib.Submit(Command{Kind: CmdSetStemGain, StemID: "click", Gain: 0.1})
	assert.False(t, ok) // queue full of non-gain commands, no matching slot to coalesce into

	ib2 := NewInbox(4)
	require.True(t, ib2.Submit(Command{Kind: CmdSetStemGain, StemID: "click", Gain: 0.2}))
	require.True(t, ib2.Submit(Command{Kind: CmdSetMasterGain, Gain: 1}))
	require.True(t, ib2.Submit(Command{Kind: CmdSetMasterGain, Gain: 2}))
	require.True(t, ib2.Submit(Command{Kind: CmdSetMasterGain, Gain: 3}))
	ok2 := ib2.Submit(Command{Kind: CmdSetStemGain, StemID: "click", Gain: 0.9})
	assert.True(t, ok2)

	dst := make([]Command, 0, 4)
	dst = ib2.Drain(4, dst)
	require.Len(t, dst, 4)
	assert.Equal(t, float32(0.9), dst[0].Gain)
}

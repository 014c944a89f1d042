package outputdriver

import (
	"testing"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backline-audio/engine/internal/apperr"
)

type fakeTransport struct {
	renderCalls int
	pauseCalls  int
	lastFrames  int
}

func (f *fakeTransport) Render(out []float32, frames int) {
	f.renderCalls++
	f.lastFrames = frames
	for i := range out {
		out[i] = 1
	}
}

func (f *fakeTransport) Pause() bool {
	f.pauseCalls++
	return true
}

func TestBytesToFloat32RoundTrips(t *testing.T) {
	src := []float32{0.1, -0.2, 0.3, -0.4}
	buf := make([]byte, len(src)*4)
	for i, v := range src {
		*(*float32)(unsafe.Pointer(&buf[i*4])) = v
	}

	got := bytesToFloat32(buf)
	require.Len(t, got, len(src))
	for i := range src {
		assert.Equal(t, src[i], got[i])
	}
}

func TestBytesToFloat32EmptyInput(t *testing.T) {
	assert.Nil(t, bytesToFloat32(nil))
}

func TestOnDataRendersForActiveGeneration(t *testing.T) {
	transport := &fakeTransport{}
	d := New(transport, nil, Config{})
	d.active.Store(7)

	cb := d.onData(7)
	buf := make([]byte, 4*2*10) // 10 frames, stereo, f32
	cb(buf, nil, 10)

	assert.Equal(t, 1, transport.renderCalls)
	assert.Equal(t, 10, transport.lastFrames)
}

func TestOnDataSilencesSupersededGeneration(t *testing.T) {
	transport := &fakeTransport{}
	d := New(transport, nil, Config{})
	d.active.Store(9) // a newer generation is active

	cb := d.onData(7) // this call belongs to the old, superseded generation
	buf := make([]byte, 4*2*10)
	for i := range buf {
		buf[i] = 0xFF
	}
	cb(buf, nil, 10)

	assert.Equal(t, 0, transport.renderCalls)
	out := bytesToFloat32(buf)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestOnDeviceStopPausesOnlyForActiveGeneration(t *testing.T) {
	transport := &fakeTransport{}
	d := New(transport, nil, Config{})
	d.active.Store(3)

	d.onDeviceStop(3)() // active generation: should pause
	assert.Equal(t, 1, transport.pauseCalls)

	d.onDeviceStop(1)() // stale generation: must not pause again
	assert.Equal(t, 1, transport.pauseCalls)
}

func TestSelectDeviceDefaultWithNoDevicesFails(t *testing.T) {
	infos := []malgo.DeviceInfo{}
	_, err := selectDevice(infos, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDeviceUnavailable, apperr.KindOf(err))
}

package outputdriver

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/logging"
)

var log = logging.ForService("outputdriver")

const (
	canonicalChannels = 2
	deviceOpenTimeout = 5 * time.Second
)

// Transport is what the Output Driver needs from the Mixer: fill a buffer
// on the real-time thread, and respond to an asynchronous device loss by
// pausing playback.
type Transport interface {
	Render(out []float32, frames int)
	Pause() bool
}

// Config sizes the requested playback stream. SampleRate is the canonical
// engine rate; if the device cannot match it, playback resamples at the
// output boundary and decoded PCM is never touched (spec.md §4.E).
type Config struct {
	SampleRate   uint32
	BufferFrames uint32
}

// stream is one open malgo playback device plus the generation number the
// Data/Stop callbacks were captured against.
type stream struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device
	gen uint64
}

// Driver owns the host playback stream and implements glitch-free device
// switching (spec.md §4.E): a new stream is opened and confirmed running
// before the old one is stopped, and at most one generation's callback is
// ever allowed to pull from the Transport at a time.
type Driver struct {
	mu     sync.Mutex
	source Transport
	bus    *events.Bus
	cfg    Config

	current *stream
	active  atomic.Uint64 // generation currently allowed to call source.Render
	nextGen atomic.Uint64
}

func New(source Transport, bus *events.Bus, cfg Config) *Driver {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.BufferFrames == 0 {
		cfg.BufferFrames = 512
	}
	return &Driver{source: source, bus: bus, cfg: cfg}
}

// Start opens the named device (or the host default) as the first stream.
func (d *Driver) Start(deviceName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		return apperr.Newf("driver already started, use Switch").
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryState).
			Kind(apperr.KindInternal).
			Build()
	}

	st, err := d.openStream(deviceName)
	if err != nil {
		return err
	}
	d.current = st
	d.active.Store(st.gen)
	return nil
}

// Stop halts and releases the current stream.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return nil
	}
	d.active.Store(0)
	closeStream(d.current)
	d.current = nil
	return nil
}

// Switch implements the device-switch algorithm from spec.md §4.E: open
// the new device first; only once it reports running do we mark the old
// generation inactive and tear it down. On failure the old stream is left
// completely untouched.
func (d *Driver) Switch(newDeviceName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	newStream, err := d.openStream(newDeviceName)
	if err != nil {
		return err
	}

	old := d.current
	d.current = newStream
	d.active.Store(newStream.gen) // from here, old's Data callback renders silence

	if old != nil {
		closeStream(old)
	}
	return nil
}

// openStream runs InitDevice+Start with a bounded timeout. miniaudio's
// InitDevice has no cancellation hook, so a timed-out attempt may still
// complete in the background; any such late-arriving device is stopped
// and released immediately rather than tracked (best-effort — the spec's
// 5-second budget is honored from the caller's point of view).
func (d *Driver) openStream(deviceName string) (*stream, error) {
	gen := d.nextGen.Add(1)

	type result struct {
		st  *stream
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		st, err := d.initAndStart(deviceName, gen)
		resultCh <- result{st, err}
	}()

	select {
	case r := <-resultCh:
		return r.st, r.err
	case <-time.After(deviceOpenTimeout):
		go func() {
			r := <-resultCh
			if r.st != nil {
				closeStream(r.st)
			}
		}()
		return nil, apperr.Newf("timed out opening device %q after %s", deviceName, deviceOpenTimeout).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("device_name", deviceName).
			Context("timeout", deviceOpenTimeout.String()).
			Build()
	}
}

func (d *Driver) initAndStart(deviceName string, gen uint64) (*stream, error) {
	ctx, err := malgo.InitContext(backendsForPlatform(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("operation", "init_context").
			Build()
	}

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		_ = ctx.Uninit()
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("operation", "enumerate_devices").
			Build()
	}

	deviceInfo, err := selectDevice(infos, deviceName)
	if err != nil {
		_ = ctx.Uninit()
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = canonicalChannels
	deviceConfig.Playback.DeviceID = deviceInfo.ID.Pointer()
	deviceConfig.SampleRate = d.cfg.SampleRate
	deviceConfig.PeriodSizeInFrames = d.cfg.BufferFrames

	callbacks := malgo.DeviceCallbacks{
		Data: d.onData(gen),
		Stop: d.onDeviceStop(gen),
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("device_name", deviceName).
			Context("operation", "init_device").
			Build()
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = ctx.Uninit()
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("device_name", deviceName).
			Context("operation", "start_device").
			Build()
	}

	return &stream{ctx: ctx, dev: dev, gen: gen}, nil
}

// onData is the real-time callback. It renders directly into the host's
// output buffer — no intermediate copy, no allocation — and drops the
// frame on the floor (silence) for any generation that Switch has already
// superseded, so an in-flight old stream never double-renders against the
// Mixer's position alongside its replacement.
func (d *Driver) onData(gen uint64) func(pOutputSample, pInputSample []byte, frameCount uint32) {
	return func(pOutput, _ []byte, frameCount uint32) {
		out := bytesToFloat32(pOutput)
		if d.active.Load() != gen {
			zeroFloat32(out)
			return
		}
		d.source.Render(out, int(frameCount))
	}
}

// onDeviceStop fires when the host reports the device gone out from under
// us (unplugged, disabled) rather than as a result of our own Stop/Switch
// call. Response policy per spec.md §4.E: pause transport and surface
// DeviceDisconnected; the user must pick a device and resume explicitly.
func (d *Driver) onDeviceStop(gen uint64) func() {
	return func() {
		if d.active.Load() != gen {
			return // this generation was already superseded by Switch
		}
		d.source.Pause()
		if d.bus != nil {
			d.bus.TryPublish(events.TopicAudioError, AudioErrorEvent{
				Kind:    apperr.KindDeviceDisconnected,
				Message: "playback device disconnected",
			})
		}
		log.Warn("playback device disconnected, transport paused")
	}
}

func closeStream(st *stream) {
	if st == nil {
		return
	}
	_ = st.dev.Stop()
	st.dev.Uninit()
	_ = st.ctx.Uninit()
}

// AudioErrorEvent is TopicAudioError's payload for driver-originated
// failures (device loss, open failure outside Start/Switch's own error
// return).
type AudioErrorEvent struct {
	Kind    apperr.ErrorKind
	Message string
}

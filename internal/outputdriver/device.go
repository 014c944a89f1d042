// Package outputdriver owns the host playback stream (spec.md §4.E,
// Component E): device enumeration, glitch-free device switching, and
// bridging the Mixer's Render callback onto the host's real-time audio
// thread via malgo.
package outputdriver

import (
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/backline-audio/engine/internal/apperr"
)

// DeviceInfo describes one enumerated playback device.
type DeviceInfo struct {
	Name      string
	ID        string
	IsDefault bool
}

func backendsForPlatform() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa, malgo.BackendPulseAudio}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return []malgo.Backend{malgo.BackendNull}
	}
}

// EnumerateDevices lists available playback devices.
func EnumerateDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(backendsForPlatform(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("operation", "init_context").
			Build()
	}
	defer func() { _ = ctx.Uninit() }()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Context("operation", "enumerate_devices").
			Build()
	}

	out := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		if strings.Contains(infos[i].Name(), "Discard all samples") {
			continue
		}
		out = append(out, DeviceInfo{
			Name:      infos[i].Name(),
			ID:        infos[i].ID.String(),
			IsDefault: infos[i].IsDefault == 1,
		})
	}
	return out, nil
}

func selectDevice(infos []malgo.DeviceInfo, name string) (*malgo.DeviceInfo, error) {
	if name == "" || name == "default" {
		for i := range infos {
			if infos[i].IsDefault == 1 {
				return &infos[i], nil
			}
		}
		if len(infos) > 0 {
			return &infos[0], nil
		}
		return nil, apperr.Newf("no playback devices present").
			Component(apperr.ComponentOutputDriver).
			Category(apperr.CategoryAudioDevice).
			Kind(apperr.KindDeviceUnavailable).
			Build()
	}
	for i := range infos {
		if infos[i].Name() == name {
			return &infos[i], nil
		}
	}
	return nil, apperr.Newf("no playback device named %q", name).
		Component(apperr.ComponentOutputDriver).
		Category(apperr.CategoryAudioDevice).
		Kind(apperr.KindDeviceUnavailable).
		Context("device_name", name).
		Build()
}

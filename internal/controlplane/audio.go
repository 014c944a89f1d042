package controlplane

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/conf"
	"github.com/backline-audio/engine/internal/outputdriver"
)

func (s *Server) getAudioDevices(c echo.Context) error {
	devices, err := outputdriver.EnumerateDevices()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, devices)
}

func (s *Server) switchAudioDevice(c echo.Context) error {
	var req switchDeviceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	if s.driver == nil {
		return writeError(c, noDriverConfigured())
	}
	if err := s.driver.Switch(req.Name); err != nil {
		return writeError(c, err)
	}
	next := *conf.GetSettings()
	next.Audio.PreferredOutputDevice = req.Name
	if err := conf.UpdateSettings(&next); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// setBufferSize and setSampleRate validate and persist the requested value
// only; the running stream is not reconfigured in place, since malgo's
// device handle has no live buffer/sample-rate resize (spec.md §6.1). The
// Driver keeps the buffer size it was constructed with, also across
// switch_audio_device, so a new buffer size takes effect at the next serve
// start. serve always opens the device at the canonical sample rate, so the
// persisted sample rate is not applied to playback.
func (s *Server) setBufferSize(c echo.Context) error {
	var req bufferSizeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	next := *conf.GetSettings()
	next.Audio.BufferSizeFrames = req.Frames
	if err := conf.UpdateSettings(&next); err != nil {
		return writeError(c, invalidArgument(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setSampleRate(c echo.Context) error {
	var req sampleRateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	next := *conf.GetSettings()
	next.Audio.SampleRateHz = req.Hz
	if err := conf.UpdateSettings(&next); err != nil {
		return writeError(c, invalidArgument(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getAudioSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, conf.GetSettings().Audio)
}

func (s *Server) getCacheStats(c echo.Context) error {
	stats := s.cache.Stats()
	return c.JSON(http.StatusOK, cacheStatsResponse{
		Entries:     stats.EntryCount,
		UsedBytes:   stats.UsedBytes,
		BudgetBytes: stats.BudgetBytes,
	})
}

func (s *Server) setCacheSize(c echo.Context) error {
	var req cacheSizeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	s.cache.SetByteBudget(req.Bytes)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearCache(c echo.Context) error {
	s.cache.Clear()
	return c.NoContent(http.StatusNoContent)
}

func noDriverConfigured() error {
	return apperr.Newf("no output driver configured").
		Component(apperr.ComponentControlPlane).Category(apperr.CategoryConfiguration).
		Kind(apperr.KindDeviceUnavailable).Build()
}

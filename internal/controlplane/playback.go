package controlplane

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/conf"
)

func (s *Server) playSong(c echo.Context) error {
	var req playSongRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}

	song, err := s.cache.GetOrLoad(c.Request().Context(), req.SongID)
	if err != nil {
		return writeError(c, err)
	}

	s.resetStemToggles()
	s.mixer.LoadSong(song)
	s.mixer.Play()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) pausePlayback(c echo.Context) error {
	s.mixer.Pause()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) resumePlayback(c echo.Context) error {
	s.mixer.Play()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) stopPlayback(c echo.Context) error {
	s.mixer.Stop()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) seekToPosition(c echo.Context) error {
	var req seekRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	if req.Seconds < 0 {
		return writeError(c, apperr.Newf("seek position must be non-negative").
			Component(apperr.ComponentMixer).Category(apperr.CategoryValidation).
			Kind(apperr.KindInvalidSeekPosition).Build())
	}
	frames := int64(req.Seconds * float64(conf.DefaultCanonicalSampleRate))
	s.mixer.Seek(frames)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setMasterVolume(c echo.Context) error {
	var req masterVolumeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	s.mixer.SetMasterGain(clampGain(req.Volume))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setStemVolume(c echo.Context) error {
	var req stemVolumeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	s.mixer.SetStemGain(req.StemID, clampGain(req.Volume))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) toggleStemMute(c echo.Context) error {
	var req stemToggleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	s.toggleMu.Lock()
	next := !s.stemMute[req.StemID]
	s.stemMute[req.StemID] = next
	s.toggleMu.Unlock()
	s.mixer.SetStemMute(req.StemID, next)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) toggleStemSolo(c echo.Context) error {
	var req stemToggleRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	s.toggleMu.Lock()
	next := !s.stemSolo[req.StemID]
	s.stemSolo[req.StemID] = next
	s.toggleMu.Unlock()
	s.mixer.SetStemSolo(req.StemID, next)
	return c.NoContent(http.StatusNoContent)
}

// resetStemToggles clears the control plane's shadow of per-stem
// mute/solo state. PlaybackState itself lives exclusively on the audio
// thread (spec.md §5), so toggle_stem_mute/solo's "toggle" semantics are
// implemented against this control-thread-local shadow rather than a read
// of the Mixer's real state; it is reset whenever a new song is loaded
// since stem ids don't carry across songs.
func (s *Server) resetStemToggles() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	s.stemMute = make(map[string]bool)
	s.stemSolo = make(map[string]bool)
}

func clampGain(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func invalidArgument(err error) error {
	return apperr.New(err).
		Component(apperr.ComponentControlPlane).
		Category(apperr.CategoryValidation).
		Kind(apperr.KindInvalidArgument).
		Build()
}

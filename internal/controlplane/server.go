package controlplane

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backline-audio/engine/internal/datastore"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/mixer"
	"github.com/backline-audio/engine/internal/outputdriver"
	"github.com/backline-audio/engine/internal/songcache"
)

var log = logging.ForService("controlplane")

// Importer is the Import Pipeline's (Component H) contract as seen from
// the control plane.
type Importer interface {
	Import(paths []string, title, artist, key, timeSignature string) (songID string, err error)
}

// Server wires the command surface and event hub to the engine's
// components. It holds no playback state of its own — only the
// control-thread-local mute/solo toggle shadow described in playback.go.
type Server struct {
	Echo *echo.Echo

	mixer    *mixer.Mixer
	cache    *songcache.Cache
	store    *datastore.Store
	driver   *outputdriver.Driver
	bus      *events.Bus
	importer Importer
	hub      *Hub

	toggleMu  sync.Mutex
	stemMute  map[string]bool
	stemSolo  map[string]bool
}

// New builds the HTTP/websocket surface. driver and importer may be nil in
// configurations that omit them (e.g. headless tests exercising only the
// library/setlist surface).
func New(m *mixer.Mixer, cache *songcache.Cache, store *datastore.Store, driver *outputdriver.Driver, importer Importer, bus *events.Bus) *Server {
	s := &Server{
		Echo:     echo.New(),
		mixer:    m,
		cache:    cache,
		store:    store,
		driver:   driver,
		importer: importer,
		bus:      bus,
		hub:      NewHub(bus),
		stemMute: make(map[string]bool),
		stemSolo: make(map[string]bool),
	}
	s.Echo.HideBanner = true
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.Logger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.Echo

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", s.hub.ServeWS)

	e.POST("/commands/play_song", s.playSong)
	e.POST("/commands/pause_playback", s.pausePlayback)
	e.POST("/commands/resume_playback", s.resumePlayback)
	e.POST("/commands/stop_playback", s.stopPlayback)
	e.POST("/commands/seek_to_position", s.seekToPosition)
	e.POST("/commands/set_master_volume", s.setMasterVolume)
	e.POST("/commands/set_stem_volume", s.setStemVolume)
	e.POST("/commands/toggle_stem_mute", s.toggleStemMute)
	e.POST("/commands/toggle_stem_solo", s.toggleStemSolo)

	e.POST("/commands/import_files", s.importFiles)
	e.GET("/songs", s.getAllSongs)
	e.GET("/songs/:id", s.getSong)
	e.GET("/songs/:id/stems", s.getSongStems)
	e.GET("/songs/search", s.searchSongs)
	e.GET("/songs/filter", s.filterSongs)
	e.DELETE("/songs/:id", s.deleteSong)

	e.POST("/setlists", s.createSetlist)
	e.GET("/setlists/:id", s.getSetlist)
	e.GET("/setlists", s.getAllSetlists)
	e.PUT("/setlists/:id", s.updateSetlist)
	e.DELETE("/setlists/:id", s.deleteSetlist)
	e.POST("/setlists/:id/songs", s.addSongToSetlist)
	e.DELETE("/setlists/:id/songs/:song_id", s.removeSongFromSetlist)
	e.PUT("/setlists/:id/order", s.reorderSetlistSongs)
	e.POST("/setlists/:id/preload", s.preloadSetlist)

	e.GET("/audio/devices", s.getAudioDevices)
	e.POST("/audio/device", s.switchAudioDevice)
	e.POST("/audio/buffer_size", s.setBufferSize)
	e.POST("/audio/sample_rate", s.setSampleRate)
	e.GET("/audio/settings", s.getAudioSettings)

	e.GET("/cache/stats", s.getCacheStats)
	e.POST("/cache/size", s.setCacheSize)
	e.POST("/cache/clear", s.clearCache)
}

// Start serves HTTP on addr, blocking until the server stops or errors.
func (s *Server) Start(addr string) error {
	log.Info("control plane listening", "addr", addr)
	err := s.Echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and closes all websocket connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.Echo.Shutdown(ctx)
}

package controlplane

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/model"
	"github.com/backline-audio/engine/internal/outputdriver"
)

func (s *Server) importFiles(c echo.Context) error {
	var req importFilesRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	if s.importer == nil {
		return writeError(c, apperr.Newf("import pipeline not configured").
			Component(apperr.ComponentControlPlane).Category(apperr.CategoryConfiguration).
			Kind(apperr.KindInternal).Build())
	}
	songID, err := s.importer.Import(req.Paths, req.Title, req.Artist, req.Key, req.TimeSignature)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, importFilesResponse{SongID: songID})
}

func (s *Server) getAllSongs(c echo.Context) error {
	songs, err := s.store.GetAllSongs()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, songs)
}

func (s *Server) getSong(c echo.Context) error {
	song, err := s.store.GetSong(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, song)
}

func (s *Server) getSongStems(c echo.Context) error {
	stems, err := s.store.GetSongStems(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stems)
}

func (s *Server) searchSongs(c echo.Context) error {
	songs, err := s.store.SearchSongs(c.QueryParam("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, songs)
}

func (s *Server) filterSongs(c echo.Context) error {
	var req filterSongsRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	songs, err := s.store.FilterSongs(model.SongFilter{
		Query: req.Query, TempoMin: req.TempoMin, TempoMax: req.TempoMax,
		Key: req.Key, SortBy: req.SortBy,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, songs)
}

func (s *Server) deleteSong(c echo.Context) error {
	if err := s.store.DeleteSong(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) createSetlist(c echo.Context) error {
	var req createSetlistRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	sl, err := s.store.CreateSetlist(req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sl)
}

func (s *Server) getSetlist(c echo.Context) error {
	sl, err := s.store.GetSetlist(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sl)
}

func (s *Server) getAllSetlists(c echo.Context) error {
	sls, err := s.store.GetAllSetlists()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sls)
}

// updateSetlist composes a rename with a full membership reorder — the
// store has no single combined operation since the two invariants
// (name uniqueness, atomic permutation) are independently enforced.
func (s *Server) updateSetlist(c echo.Context) error {
	var req updateSetlistRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	id := c.Param("id")
	if req.Name != "" {
		if err := s.store.RenameSetlist(id, req.Name); err != nil {
			return writeError(c, err)
		}
	}
	if req.SongIDs != nil {
		if err := s.store.ReorderSetlistSongs(id, req.SongIDs); err != nil {
			return writeError(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteSetlist(c echo.Context) error {
	if err := s.store.DeleteSetlist(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) addSongToSetlist(c echo.Context) error {
	var req addSongRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	if err := s.store.AddSongToSetlist(c.Param("id"), req.SongID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) removeSongFromSetlist(c echo.Context) error {
	if err := s.store.RemoveSongFromSetlist(c.Param("id"), c.Param("song_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) reorderSetlistSongs(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalidArgument(err))
	}
	if err := s.store.ReorderSetlistSongs(c.Param("id"), req.SongIDs); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// preloadSetlist loads and pins every member song so playback through the
// set has no cache-miss stalls (spec.md §6.1's preload_setlist). Progress
// is pushed over the event bus rather than returned synchronously, since a
// large setlist may take several seconds to fully decode.
func (s *Server) preloadSetlist(c echo.Context) error {
	sl, err := s.store.GetSetlist(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	// Detached from the request context: the handler returns as soon as
	// this goroutine is launched, and net/http cancels a request's own
	// Context() the moment ServeHTTP returns.
	go func(setlistID string, songIDs []string) {
		total := len(songIDs)
		for i, songID := range songIDs {
			song, err := s.cache.GetOrLoad(context.Background(), songID)
			if err != nil {
				s.bus.TryPublish(events.TopicAudioError, outputdriver.AudioErrorEvent{
					Kind: apperr.KindOf(err), Message: err.Error(),
				})
				continue
			}
			s.cache.Pin(song.SongID)
			s.bus.TryPublish(events.TopicPreloadProgress, preloadProgress{SetlistID: setlistID, Current: i + 1, Total: total})
		}
		s.bus.TryPublish(events.TopicPreloadComplete, preloadComplete{SetlistID: setlistID})
	}(sl.ID, songIDsOf(sl))

	return c.NoContent(http.StatusAccepted)
}

type preloadProgress struct {
	SetlistID string `json:"setlist_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
}

type preloadComplete struct {
	SetlistID string `json:"setlist_id"`
}

func songIDsOf(sl *model.Setlist) []string {
	ids := make([]string, len(sl.Items))
	for i, item := range sl.Items {
		ids[i] = item.SongID
	}
	return ids
}

// Package controlplane is the thin, versioned command façade described in
// spec.md §4.F / Component F: an Echo HTTP JSON surface for the command
// set in §6.1, and a websocket push of the event set in §6.2. It never
// holds playback state itself — playback commands translate into Mixer
// inbox messages; library/cache/import commands are executed directly and
// awaited.
package controlplane

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/backline-audio/engine/internal/apperr"
)

// errorResponse is the JSON body returned for any failed command. Kind is
// the stable, UI-facing identifier from spec.md §7; the UI switches on it,
// not on the HTTP status or Message text.
type errorResponse struct {
	Kind    apperr.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// writeError translates any error into spec.md §7's ErrorKind taxonomy and
// an appropriate HTTP status.
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	return c.JSON(statusForKind(kind), errorResponse{Kind: kind, Message: err.Error()})
}

func statusForKind(kind apperr.ErrorKind) int {
	switch kind {
	case apperr.KindNotFound, apperr.KindNoSongLoaded:
		return http.StatusNotFound
	case apperr.KindDuplicateSource, apperr.KindUniqueViolation:
		return http.StatusConflict
	case apperr.KindInvalidArgument, apperr.KindInvalidSeekPosition,
		apperr.KindSampleRateUnsupported, apperr.KindUnsupportedFormat,
		apperr.KindBudgetBelowPinnedSet:
		return http.StatusBadRequest
	case apperr.KindDeviceUnavailable, apperr.KindDeviceDisconnected:
		return http.StatusServiceUnavailable
	case apperr.KindFileNotFound:
		return http.StatusNotFound
	case apperr.KindCorruptStream, apperr.KindSongLoadFailed,
		apperr.KindMetadataExtractionFailed, apperr.KindStoreCorrupt,
		apperr.KindIoError, apperr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

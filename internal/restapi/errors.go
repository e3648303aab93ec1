package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"nexttrip.rieles.app/internal/calendar"
	"nexttrip.rieles.app/internal/feed"
	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/logging"
	"nexttrip.rieles.app/internal/models"
	"nexttrip.rieles.app/internal/schedule"
	"nexttrip.rieles.app/internal/stations"
)

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	logger.Error("request failed", "method", r.Method, "uri", r.URL.RequestURI(), "error", err)

	response := struct {
		Code        int    `json:"code"`
		CurrentTime int64  `json:"currentTime"`
		Text        string `json:"text"`
		Version     int    `json:"version"`
	}{
		Code:        http.StatusInternalServerError,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "internal server error",
		Version:     1,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	encoderErr := json.NewEncoder(w).Encode(response)
	if encoderErr != nil {
		logger.Error("failed to encode server error response", "error", encoderErr)
	}
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// upstreamErrorResponse sends a 502 Bad Gateway response when the feed could
// not be reached and no cached copy exists.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	logger.Warn("upstream feed unavailable", "uri", r.URL.RequestURI(), "error", err)

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadGateway)

	response := models.NewResponse(http.StatusBadGateway, nil, "schedule feed unavailable")
	encoderErr := json.NewEncoder(w).Encode(response)
	if encoderErr != nil {
		logger.Error("failed to encode upstream error response", "error", encoderErr)
	}
}

// resolutionErrorResponse maps session errors onto HTTP responses. Data that
// simply does not exist is a 404; an unreachable feed is a 502; anything else
// is a 500.
func (api *RestAPI) resolutionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *feed.DataUnavailableError

	switch {
	case errors.As(err, &unavailable):
		api.upstreamErrorResponse(w, r, err)
	case errors.Is(err, stations.ErrNoStationsAvailable),
		errors.Is(err, stations.ErrOriginDetectionFailed):
		api.sendNotFound(w, r, "no station matches the provided location")
	case errors.Is(err, calendar.ErrNoMatchingSegment):
		api.sendNotFound(w, r, "no schedule segment covers the requested date")
	case errors.Is(err, schedule.ErrNoTripsFound):
		api.sendNotFound(w, r, "no upcoming trips within the lookahead window")
	case errors.Is(err, location.ErrPermissionDenied),
		errors.Is(err, location.ErrUnavailable):
		api.sendNotFound(w, r, "location unavailable")
	default:
		api.serverErrorResponse(w, r, err)
	}
}

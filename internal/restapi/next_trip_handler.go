package restapi

import (
	"net/http"
	"time"

	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/models"
	"nexttrip.rieles.app/internal/utils"
)

func (api *RestAPI) nextTripHandler(w http.ResponseWriter, r *http.Request) {
	destinationID := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(destinationID); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"id": {err.Error()},
		})
		return
	}

	point, fieldErrors := parseLocationParams(r)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	// An explicit reference instant lets clients resolve for a future moment.
	var now func() time.Time
	if raw := r.URL.Query().Get("time"); raw != "" {
		reference, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.validationErrorResponse(w, r, map[string][]string{
				"time": {"time must be RFC 3339, e.g. 2026-01-02T15:04:05Z"},
			})
			return
		}
		now = func() time.Time { return reference }
	}

	ctx := r.Context()
	session := api.NewSession(location.Static{Position: point}, now)

	if err := session.LoadReferenceData(ctx); err != nil {
		api.resolutionErrorResponse(w, r, err)
		return
	}

	origin, err := session.DetectOrigin(ctx)
	if err != nil {
		api.resolutionErrorResponse(w, r, err)
		return
	}

	destination, ok := session.DestinationByID(destinationID)
	if !ok {
		api.sendNotFound(w, r, "unknown destination id")
		return
	}
	if destination.ID == origin.ID {
		api.validationErrorResponse(w, r, map[string][]string{
			"id": {"destination matches the detected origin"},
		})
		return
	}

	resolved, err := session.Resolve(ctx, destination)
	if err != nil {
		api.resolutionErrorResponse(w, r, err)
		return
	}

	entry := map[string]interface{}{
		"origin":            origin,
		"destination":       destination,
		"departureTime":     resolved.Departure.UnixMilli(),
		"departureReadable": resolved.Departure.Format(time.RFC3339),
		"degraded":          session.Degraded(),
	}
	if segment, ok := session.Segment(); ok {
		entry["segment"] = segment
	}
	if resolved.HasAlternative() {
		entry["alternativeStartTime"] = resolved.AlternativeStart
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry))
}

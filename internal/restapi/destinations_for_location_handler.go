package restapi

import (
	"net/http"

	"nexttrip.rieles.app/internal/location"
	"nexttrip.rieles.app/internal/models"
)

func (api *RestAPI) destinationsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	point, fieldErrors := parseLocationParams(r)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	session := api.NewSession(location.Static{Position: point}, nil)

	if err := session.LoadReferenceData(ctx); err != nil {
		api.resolutionErrorResponse(w, r, err)
		return
	}

	origin, err := session.DetectOrigin(ctx)
	if err != nil {
		api.resolutionErrorResponse(w, r, err)
		return
	}

	data := map[string]interface{}{
		"origin":       origin,
		"destinations": session.Destinations(),
		"degraded":     session.Degraded(),
	}
	api.sendResponse(w, r, models.NewOKResponse(data))
}

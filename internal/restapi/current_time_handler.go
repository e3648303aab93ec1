package restapi

import (
	"net/http"
	"time"

	"nexttrip.rieles.app/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	currentTime := models.NewCurrentTimeModel(time.Now())
	api.sendResponse(w, r, models.NewEntryResponse(currentTime))
}

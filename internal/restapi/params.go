package restapi

import (
	"net/http"

	"nexttrip.rieles.app/internal/geo"
	"nexttrip.rieles.app/internal/utils"
)

// parseLocationParams reads and validates the lat/lon query parameters shared
// by the location-based endpoints.
func parseLocationParams(r *http.Request) (geo.Coordinate, map[string][]string) {
	query := r.URL.Query()

	lat, fieldErrors := utils.ParseFloatParam(query, "lat", nil)
	lon, fieldErrors := utils.ParseFloatParam(query, "lon", fieldErrors)
	if len(fieldErrors) > 0 {
		return geo.Coordinate{}, fieldErrors
	}

	if err := utils.ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}
	if err := utils.ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}
	if len(fieldErrors) > 0 {
		return geo.Coordinate{}, fieldErrors
	}

	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}

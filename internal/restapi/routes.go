package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes wires up the schedule API endpoints.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/api/where/current-time.json", api.currentTimeHandler)
	router.HandlerFunc(http.MethodGet, "/api/where/destinations-for-location.json", api.destinationsForLocationHandler)
	router.HandlerFunc(http.MethodGet, "/api/where/next-trip/:id", api.nextTripHandler)
	router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())

	return NewRequestLoggingMiddleware(api.Logger)(router)
}

package restapi

import (
	"nexttrip.rieles.app/internal/app"
)

type RestAPI struct {
	*app.Application
}

// NewRestAPI creates a new RestAPI instance wrapping the application.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{Application: app}
}

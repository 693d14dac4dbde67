// Package endpoints defines the HTTP API surface. Each endpoint bundles
// its route registration with the CLI command that calls it, so the two
// stay in sync.
package endpoints

import (
	"github.com/foliolabs/folio/internal/api"
)

// All returns every endpoint the server exposes, in route-listing order.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health
		&HealthEndpoint{},

		// Documents
		&DocumentsSubmitEndpoint{},
		&DocumentsListEndpoint{},
		&DocumentsGetEndpoint{},
		&PageParsedEndpoint{},
		&DocumentSearchEndpoint{},

		// Jobs
		&JobsGetEndpoint{},
		&JobPauseEndpoint{},
		&JobResumeEndpoint{},
		&JobCancelEndpoint{},
	}
}

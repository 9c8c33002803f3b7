package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Service health",
		Description: "Reports database connectivity and the tables clients can sync. Used by clients before every sync run.",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}

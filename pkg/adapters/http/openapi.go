package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aretw0/lattice/api"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/oapi-codegen/runtime"
)

// PlanFormat is the format query parameter of POST /plan.
type PlanFormat string

const (
	PlanFormatReport PlanFormat = "report"
	PlanFormatJSONL  PlanFormat = "jsonl"
	PlanFormatText   PlanFormat = "text"
)

// PlanParams are the query parameters of POST /plan.
type PlanParams struct {
	Format *PlanFormat `form:"format,omitempty" json:"format,omitempty"`
}

// bindPlanParams reads PlanParams from the request query.
func bindPlanParams(r *http.Request) (PlanParams, error) {
	var params PlanParams
	err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format)
	return params, err
}

var loadRouter = sync.OnceValues(func() (routers.Router, error) {
	doc, err := api.Load(context.Background())
	if err != nil {
		return nil, err
	}
	// Match any host: the service is reached under whatever address it is served on.
	doc.Servers = nil
	return gorillamux.NewRouter(doc)
})

// validateRequests checks requests for documented routes against the
// OpenAPI description. Bodies are left to the handlers, which read them
// under the size limit. Undocumented routes such as /metrics pass through.
func (s *Server) validateRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router, err := loadRouter()
		if err != nil {
			s.logger.Error("openapi router unavailable", "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				ExcludeRequestBody: true,
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid request"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeSpec handles GET /openapi.yaml.
func (s *Server) ServeSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(api.Spec)
}

// # internal/ui/server/server.go
package server

import (
	"context"
	_ "embed"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"autoinject/internal/engine/inject"
	"autoinject/internal/engine/sourcemap"
	"autoinject/internal/shared/observability"
	"autoinject/internal/shared/util"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-json-experiment/json"
)

//go:embed openapi.yaml
var specYAML []byte

const (
	maxBodyBytes = 8 << 20 // 8 MiB
	limiterTTL   = 10 * time.Minute
)

// Transformer is the part of the build host the API needs.
type Transformer interface {
	TransformSource(ctx context.Context, code, id string) *inject.Result
}

type Options struct {
	Address string
	Rate    float64 // requests per second per client; <= 0 disables limiting
	Burst   int
	Health  observability.HealthChecker
}

type transformRequest struct {
	Code string `json:"code"`
	ID   string `json:"id"`
}

type importView struct {
	Module string `json:"module"`
	Export string `json:"export"`
	Local  string `json:"local"`
}

type transformResponse struct {
	Changed bool                `json:"changed"`
	Status  string              `json:"status"`
	Code    string              `json:"code,omitempty"`
	Map     *sourcemap.Document `json:"map,omitempty"`
	Imports []importView        `json:"imports"`
	Warning string              `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the transform over HTTP next to /health and /metrics.
type Server struct {
	addr        string
	transformer Transformer
	router      routers.Router
	limiters    *util.LimiterRegistry
	health      observability.HealthChecker
	server      *http.Server
}

func New(t Transformer, opts Options) (*Server, error) {
	doc, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &Server{
		addr:        opts.Address,
		transformer: t,
		router:      router,
		limiters:    util.NewLimiterRegistry(opts.Rate, opts.Burst, limiterTTL),
		health:      opts.Health,
	}, nil
}

// LoadSpec parses and validates the embedded API document.
func LoadSpec() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("load embedded openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate embedded openapi spec: %w", err)
	}
	return doc, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", s.handleAPI)
	if s.health != nil {
		mux.Handle("/", observability.NewServer(s.addr, s.health).Handler())
	}
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("transform server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	defer s.limiters.Close()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if !s.limiters.Get(clientIP(r)).Allow() {
		w.Header().Set("Retry-After", "1")
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	route, pathParams, err := s.router.FindRoute(r)
	switch {
	case isMethodNotAllowed(err):
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	case err != nil:
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return
	}

	switch route.Operation.OperationID {
	case "transform":
		s.handleTransform(w, r)
	default:
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	}
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res := s.transformer.TransformSource(r.Context(), req.Code, req.ID)
	resp := transformResponse{
		Changed: res.Status.Changed(),
		Status:  res.Status.String(),
		Imports: make([]importView, 0, len(res.Imports)),
	}
	if res.Status.Changed() {
		resp.Code = res.Code
		for _, imp := range res.Imports {
			resp.Imports = append(resp.Imports, importView{Module: imp.Module, Export: imp.Export, Local: imp.Local})
		}
		if res.Map != nil {
			doc := res.Map.Document(sourcemap.EncodeOptions{Source: req.ID, IncludeContent: true})
			resp.Map = &doc
		}
	}
	if res.Warning != nil {
		resp.Warning = res.Warning.Message
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	observability.HTTPRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func isMethodNotAllowed(err error) bool {
	if stderrors.Is(err, routers.ErrMethodNotAllowed) {
		return true
	}
	var routeErr *routers.RouteError
	return stderrors.As(err, &routeErr) && routeErr.Reason == routers.ErrMethodNotAllowed.Error()
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if stderrors.As(err, &reqErr) {
		switch {
		case reqErr.Reason != "" && reqErr.Err != nil:
			return reqErr.Reason + ": " + reqErr.Err.Error()
		case reqErr.Reason != "":
			return reqErr.Reason
		}
	}
	return err.Error()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

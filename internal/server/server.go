// Package server serves computed views over HTTP.
//
// Routes:
//
//	GET /views           every view for the selection in the query string
//	GET /views/{name}    one view
//	GET /options         seasons, weathers and weekdays present in the day table
//	GET /health          liveness and table sizes
//	GET /metrics         Prometheus metrics, when enabled
//
// The query string of /views uses the engine.Param* names; format selects
// json (default), csv, xlsx or parquet.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/paveg/bikeshare/internal/engine"
	"github.com/paveg/bikeshare/internal/io"
	"github.com/paveg/bikeshare/internal/loader"
	"github.com/paveg/bikeshare/internal/logging"
	"github.com/paveg/bikeshare/internal/monitoring"
)

// ParamFormat selects the response format of /views.
const ParamFormat = "format"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

// DatasetProvider returns the loaded tables. loader.Source implements it.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*loader.Dataset, error)
}

// Server is the HTTP front end of the engine.
type Server struct {
	source      DatasetProvider
	engine      *engine.Engine
	metrics     *monitoring.Metrics
	logger      logging.Logger
	defaultMode engine.Mode
	router      *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables /metrics and request metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultMode sets the mode used when the query does not name one.
func WithDefaultMode(m engine.Mode) Option {
	return func(s *Server) { s.defaultMode = m }
}

// New creates a Server over source.
func New(source DatasetProvider, opts ...Option) *Server {
	s := &Server{
		source:      source,
		logger:      logging.Discard(),
		defaultMode: engine.ModeAverage,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = engine.New(
		engine.WithLogger(s.logger),
		engine.WithObserver(s.metrics),
	)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.logRequests)

	r.Handle("/views", s.metrics.WrapHandler("/views", http.HandlerFunc(s.handleViews))).Methods(http.MethodGet)
	r.Handle("/views/{name}", s.metrics.WrapHandler("/views/{name}", http.HandlerFunc(s.handleView))).Methods(http.MethodGet)
	r.Handle("/options", s.metrics.WrapHandler("/options", http.HandlerFunc(s.handleOptions))).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Infof("Shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) selection(q url.Values) (engine.Selection, error) {
	if q.Get(engine.ParamMode) == "" {
		q = cloneValues(q)
		q.Set(engine.ParamMode, s.defaultMode.String())
	}
	return engine.ParseSelection(q)
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (s *Server) compute(r *http.Request) (engine.Selection, engine.Views, int, error) {
	sel, err := s.selection(r.URL.Query())
	if err != nil {
		return engine.Selection{}, nil, http.StatusBadRequest, err
	}
	ds, err := s.source.Dataset(r.Context())
	if err != nil {
		return engine.Selection{}, nil, http.StatusServiceUnavailable, err
	}
	return sel, s.engine.ComputeViews(ds.Day, ds.Hour, sel), http.StatusOK, nil
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	format, err := io.ParseFormat(r.URL.Query().Get(ParamFormat))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sel, views, status, err := s.compute(r)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}

	writer, err := io.NewViewWriter(format, w)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	if format == io.FormatXLSX || format == io.FormatParquet {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="views.%s"`, format))
	}
	if err := writer.WriteViews(sel, views.Ordered()); err != nil {
		s.logger.WithField("request_id", RequestID(r)).Errorf("writing views: %v", err)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	sel, views, status, err := s.compute(r)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}
	v, ok := views[name]
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown view %q", name))
		return
	}

	doc := io.NewViewsDocument(sel, []engine.View{v})
	s.writeJSON(w, r, http.StatusOK, doc.Views[0])
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.source.Dataset(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, engine.Options(ds.Day))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	ds, err := s.source.Dataset(r.Context())
	if err != nil {
		response["status"] = "unavailable"
		response["error"] = err.Error()
		s.writeJSON(w, r, http.StatusServiceUnavailable, response)
		return
	}
	response["day_rows"] = ds.Day.Len()
	response["hour_rows"] = ds.Hour.Len()
	s.writeJSON(w, r, http.StatusOK, response)
}

func contentType(format io.Format) string {
	switch format {
	case io.FormatCSV:
		return "text/csv; charset=utf-8"
	case io.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case io.FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/json"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithField("request_id", RequestID(r)).Errorf("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, r, status, map[string]string{
		"error":      err.Error(),
		"request_id": RequestID(r),
	})
}

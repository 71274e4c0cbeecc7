// Package serve exposes the inference fold over HTTP: clients POST samples,
// the server keeps one summary, and GET /v1/schema returns the current debug
// schema. The core stays single-threaded; a mutex serializes observations.
package serve

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/driftwatch/jsonshape/evidence"
	"github.com/driftwatch/jsonshape/jsonschema"
	"github.com/driftwatch/jsonshape/lower"
	"github.com/driftwatch/jsonshape/normalize"
)

type Server struct {
	mu     sync.Mutex
	inf    *evidence.Inference
	router *mux.Router
	log    *logrus.Logger

	samplesObserved prometheus.Counter
	observeErrors   prometheus.Counter
}

func NewServer(log *logrus.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		inf:    evidence.NewInference(),
		router: mux.NewRouter(),
		log:    log,
		samplesObserved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "jsonshape_samples_observed_total",
			Help: "Samples folded into the running summary.",
		}),
		observeErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "jsonshape_observe_errors_total",
			Help: "Samples rejected by the observer.",
		}),
	}
	s.setupRoutes(reg)
	return s
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.HandleFunc("/v1/samples", s.handleObserve()).Methods("POST")
	s.router.HandleFunc("/v1/schema", s.handleSchema()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth()).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	s.router.Use(s.logMiddleware)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"uri":    r.RequestURI,
			"status": ww.Status(),
		}).Info("request")
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.log.WithField("addr", addr).Info("listening")
	return http.ListenAndServe(addr, s.router)
}

// handleObserve folds the request body into the summary. The body is one
// JSON document, or several when sent as NDJSON.
func (s *Server) handleObserve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		docs := [][]byte{body}
		if strings.Contains(r.Header.Get("Content-Type"), "application/x-ndjson") {
			docs = docs[:0]
			for _, line := range strings.Split(string(body), "\n") {
				line = strings.TrimSpace(line)
				if line != "" {
					docs = append(docs, []byte(line))
				}
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, doc := range docs {
			if err := s.inf.ObserveBytes(doc); err != nil {
				s.observeErrors.Inc()
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			s.samplesObserved.Inc()
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) handleSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		u := s.inf.State().Clone()
		samples := s.inf.Samples()
		s.mu.Unlock()

		if samples == 0 {
			http.Error(w, "no samples observed yet", http.StatusNotFound)
			return
		}

		normalize.Normalize(u)
		out, err := jsonschema.MarshalIndent(lower.Lower(u))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

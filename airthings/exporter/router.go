package exporter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func newRouter(gatherer prometheus.Gatherer, latest func() ([]byte, bool)) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))

	r.Get("/reading", func(w http.ResponseWriter, r *http.Request) {
		body, ok := latest()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(body); err != nil {
			log.Debugf("failed to write reading: %s", err)
		}
	})

	return r
}

func marshalReading(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal reading: %s", err)
		return nil
	}
	return b
}

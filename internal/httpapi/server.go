package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"livefeed/internal/feed"
	"livefeed/pkg/types"
)

// Service defines the methods required by the HTTP API layer. Every call is
// addressed to one node; *feed.Pool implements it.
type Service interface {
	Connect(node string) error
	Disconnect(node string) error
	StartPolling(node string, k feed.Kind, interval, initialDelay time.Duration) error
	StopPolling(node string) error
	View(node string, k feed.Kind) (types.FeedResponse, error)
	UpdateFilter(node string, k feed.Kind, p types.FilterPatch) error
	ResetFilter(node string, k feed.Kind) error
	Status(node string) (types.StatusResponse, error)
	Subscribe(node string, buffer int) (<-chan feed.Event, func(), error)
	Nodes() []string
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefault(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefault(corsAllowedMethods, []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Accept", "Content-Type", "X-Request-Id"}),
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/nodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"nodes": svc.Nodes()})
	})

	r.Route("/nodes/{node}", func(r chi.Router) {
		r.Post("/connect", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			if err := svc.Connect(node); err != nil {
				fail(w, r, "connect", node, err)
				return
			}
			writeStatus(w, r, svc, "connect", node)
		})

		r.Post("/disconnect", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			if err := svc.Disconnect(node); err != nil {
				fail(w, r, "disconnect", node, err)
				return
			}
			writeStatus(w, r, svc, "disconnect", node)
		})

		r.Put("/poll", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			var req types.PollRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			k, err := feed.ParseKind(req.Feed)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			if req.IntervalMS < 0 || req.InitialDelayMS < 0 {
				writeJSONError(w, http.StatusBadRequest, "interval_ms and initial_delay_ms must not be negative")
				return
			}
			interval := time.Duration(req.IntervalMS) * time.Millisecond
			delay := time.Duration(req.InitialDelayMS) * time.Millisecond
			if err := svc.StartPolling(node, k, interval, delay); err != nil {
				fail(w, r, "poll", node, err)
				return
			}
			writeStatus(w, r, svc, "poll", node)
		})

		r.Delete("/poll", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			if err := svc.StopPolling(node); err != nil {
				fail(w, r, "stop_poll", node, err)
				return
			}
			writeStatus(w, r, svc, "stop_poll", node)
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			st, err := svc.Status(node)
			if err != nil {
				fail(w, r, "status", node, err)
				return
			}
			writeJSON(w, http.StatusOK, st)
		})

		r.Get("/feeds/{feed}", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			k, err := feed.ParseKind(chi.URLParam(r, "feed"))
			if err != nil {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			v, err := svc.View(node, k)
			if err != nil {
				fail(w, r, "view", node, err)
				return
			}
			writeJSON(w, http.StatusOK, v)
		})

		r.Patch("/feeds/{feed}/filter", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			k, err := feed.ParseKind(chi.URLParam(r, "feed"))
			if err != nil {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			var patch types.FilterPatch
			if !decodeJSON(w, r, &patch) {
				return
			}
			if err := svc.UpdateFilter(node, k, patch); err != nil {
				fail(w, r, "filter", node, err)
				return
			}
			writeView(w, r, svc, "filter", node, k)
		})

		r.Delete("/feeds/{feed}/filter", func(w http.ResponseWriter, r *http.Request) {
			node := chi.URLParam(r, "node")
			k, err := feed.ParseKind(chi.URLParam(r, "feed"))
			if err != nil {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			if err := svc.ResetFilter(node, k); err != nil {
				fail(w, r, "reset_filter", node, err)
				return
			}
			writeView(w, r, svc, "reset_filter", node, k)
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			serveEvents(w, r, svc, chi.URLParam(r, "node"))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutting down"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// serveEvents streams the node's events as server-sent events until the
// client goes away or the server shuts down.
func serveEvents(w http.ResponseWriter, r *http.Request, svc Service, node string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch, cancel, err := svc.Subscribe(node, eventBuffer)
	if err != nil {
		fail(w, r, "events", node, err)
		return
	}
	defer cancel()
	eventStreams.Inc()
	defer eventStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	out := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{node: node})
	}
	ctx, stop := streamContext(r)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(out, "event: %s\ndata: %s\n\n", e.Name, b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// decodeJSON enforces the content type and body limit, then decodes into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, r *http.Request, svc Service, op, node string) {
	st, err := svc.Status(node)
	if err != nil {
		fail(w, r, op, node, err)
		return
	}
	logOp(r, op, node, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, st)
}

func writeView(w http.ResponseWriter, r *http.Request, svc Service, op, node string, k feed.Kind) {
	v, err := svc.View(node, k)
	if err != nil {
		fail(w, r, op, node, err)
		return
	}
	logOp(r, op, node, http.StatusOK, nil)
	writeJSON(w, http.StatusOK, v)
}

func fail(w http.ResponseWriter, r *http.Request, op, node string, err error) {
	status := statusFor(err)
	logOp(r, op, node, status, err)
	writeJSONError(w, status, err.Error())
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

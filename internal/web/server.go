package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"luftraum/internal/feed"
	"luftraum/internal/hexdb"
	"luftraum/internal/track"
)

// TrackReader is the read side of the track store.
type TrackReader interface {
	Snapshot() []track.Summary
	Get(id string) (track.Track, bool)
	Len() int
}

// AircraftLookup resolves transponder addresses to registration data.
type AircraftLookup interface {
	Lookup(ctx context.Context, hex string) (hexdb.Aircraft, bool, error)
}

// Deps are the collaborators served by Handler. Nil fields disable their
// endpoints.
type Deps struct {
	Status   *Status
	Tracks   TrackReader
	Feeds    func() []feed.Snapshot
	Logs     *LogBuffer
	Aircraft AircraftLookup
	Metrics  prometheus.Gatherer
}

func Handler(d Deps) http.Handler {
	if d.Status == nil {
		d.Status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		snap := d.Status.Snapshot(time.Now().UTC())
		if d.Tracks != nil {
			snap.Tracks = d.Tracks.Len()
		}
		snap.Feeds = feedSnapshots(d.Feeds)
		writeJSON(w, snap)
	})

	mux.HandleFunc("/api/feeds", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, feedSnapshots(d.Feeds))
	})

	mux.HandleFunc("/api/tracks", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		var sums []track.Summary
		if d.Tracks != nil {
			sums = d.Tracks.Snapshot()
		}
		writeJSON(w, trackViews(sums))
	})

	mux.HandleFunc("/api/tracks/", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		id := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/tracks/")))
		if id == "" || strings.Contains(id, "/") || d.Tracks == nil {
			http.NotFound(w, r)
			return
		}
		t, ok := d.Tracks.Get(id)
		if !ok {
			http.Error(w, "track not found", http.StatusNotFound)
			return
		}
		writeJSON(w, trackDetail(t))
	})

	mux.HandleFunc("/api/aircraft/", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		if d.Aircraft == nil {
			http.Error(w, "aircraft lookup disabled", http.StatusNotFound)
			return
		}
		hex, err := hexdb.NormalizeHex(strings.TrimPrefix(r.URL.Path, "/api/aircraft/"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		a, ok, err := d.Aircraft.Lookup(ctx, hex)
		if err != nil {
			http.Error(w, "lookup failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		if !ok {
			http.Error(w, "aircraft not found", http.StatusNotFound)
			return
		}
		writeJSON(w, a)
	})

	mux.HandleFunc("/api/version", versionHandler)

	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}

	if d.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := d.Status.Snapshot(time.Now().UTC())
		tracks := 0
		if d.Tracks != nil {
			tracks = d.Tracks.Len()
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>luftraum</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>luftraum</h1>")
		_, _ = fmt.Fprintf(w, "<pre>uptime_sec=%d\ntracks=%d</pre>", snap.UptimeSec, tracks)
		_, _ = fmt.Fprintf(w, "<ul>")
		for _, p := range []string{"/api/status", "/api/tracks", "/api/feeds", "/api/logs", "/api/version", "/metrics"} {
			_, _ = fmt.Fprintf(w, "<li><a href=\"%s\">%s</a></li>", p, p)
		}
		_, _ = fmt.Fprintf(w, "</ul></body></html>")
	})

	return mux
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func feedSnapshots(fn func() []feed.Snapshot) []feed.Snapshot {
	if fn == nil {
		return []feed.Snapshot{}
	}
	out := fn()
	if out == nil {
		return []feed.Snapshot{}
	}
	return out
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

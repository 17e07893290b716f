package main

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"luftraum/internal/audit"
	"luftraum/internal/config"
	"luftraum/internal/feed"
	"luftraum/internal/hexdb"
	"luftraum/internal/track"
	"luftraum/internal/web"
)

// feedRunner is implemented by every connector.
type feedRunner interface {
	Name() string
	Run(ctx context.Context) error
	Snapshot() feed.Snapshot
}

type runtime struct {
	cfg config.Config

	store    *track.Store
	audit    *audit.Logger
	registry *prometheus.Registry
	metrics  *feed.Metrics
	pipeline *feed.Pipeline
	evictor  *track.Evictor
	feeds    []feedRunner

	aircraftCache *hexdb.Cache
	aircraft      *hexdb.Client

	status *web.Status
	logs   *web.LogBuffer
	webErr atomic.Value // string
}

func newRuntime(cfg config.Config, logs *web.LogBuffer) (*runtime, error) {
	c := cfg
	if err := config.DefaultAndValidate(&c); err != nil {
		return nil, err
	}

	r := &runtime{
		cfg:      c,
		store:    track.NewStore(),
		registry: prometheus.NewRegistry(),
		status:   web.NewStatus(),
		logs:     logs,
	}
	r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.metrics = feed.NewMetrics(r.registry, r.store)

	if c.Audit.Enable {
		al, err := audit.NewLogger(c.Audit.Path)
		if err != nil {
			return nil, err
		}
		r.audit = al
		log.Printf("audit enabled path=%s", c.Audit.Path)
	}
	r.pipeline = feed.NewPipeline(r.store, r.audit, r.metrics)

	r.evictor = &track.Evictor{
		Store:     r.store,
		Interval:  c.Tracks.EvictInterval,
		Threshold: c.Tracks.EvictAfter,
		OnEvict:   r.metrics.Evicted,
	}

	for _, s := range c.SBSServers {
		tc, err := feed.NewTCPClient(feed.TCPConfig{
			Name:           s.Name,
			Addr:           s.Addr(),
			ReconnectDelay: c.Feeds.ReconnectDelay,
			Metrics:        r.metrics,
		}, r.pipeline)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.feeds = append(r.feeds, tc)
		log.Printf("sbs feed enabled name=%s addr=%s", s.Name, s.Addr())
	}
	for _, m := range c.MQTTBrokers {
		mc, err := feed.NewMQTTClient(feed.MQTTConfig{
			Name:      m.Name,
			Host:      m.Host,
			Port:      m.Port,
			Topic:     m.Topic,
			Username:  m.Username,
			Password:  m.Password,
			KeepAlive: m.KeepAlive,
			Metrics:   r.metrics,
		}, r.pipeline)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.feeds = append(r.feeds, mc)
		log.Printf("mqtt feed enabled name=%s broker=%s:%d topic=%s", m.Name, m.Host, m.Port, m.Topic)
	}

	if c.HexDB.Enable {
		cache, err := hexdb.OpenCache(c.HexDB.CachePath)
		if err != nil {
			// Lookups still work without persistence.
			log.Printf("hexdb cache disabled: %v", err)
		} else {
			r.aircraftCache = cache
		}
		r.aircraft = hexdb.NewClient(hexdb.Config{
			BaseURL:           c.HexDB.BaseURL,
			RequestsPerMinute: c.HexDB.RequestsPerMinute,
			Cache:             r.aircraftCache,
		})
		log.Printf("hexdb enabled base_url=%s cache=%s", c.HexDB.BaseURL, c.HexDB.CachePath)
	}

	r.status.SetStatic(map[string]any{
		"audit_enabled":  c.Audit.Enable,
		"audit_path":     c.Audit.Path,
		"evict_interval": c.Tracks.EvictInterval.String(),
		"evict_after":    c.Tracks.EvictAfter.String(),
		"hexdb_enabled":  c.HexDB.Enable,
	})
	return r, nil
}

// Run blocks until ctx is done. A failing MQTT feed is logged and does not
// stop the other feeds.
func (r *runtime) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, f := range r.feeds {
		f := f
		g.Go(func() error {
			if err := f.Run(ctx); err != nil {
				log.Printf("feed %s stopped: %v", f.Name(), err)
			}
			return nil
		})
	}

	g.Go(func() error { return r.evictor.Run(ctx) })

	// The web surface only reads the store. Its failure is logged and
	// ingestion keeps running.
	if r.cfg.Web.Listen != "" {
		g.Go(func() error {
			log.Printf("web listening addr=%s", r.cfg.Web.Listen)
			if err := web.Serve(ctx, r.cfg.Web.Listen, r.Handler()); err != nil {
				r.webErr.Store(err.Error())
				log.Printf("web server stopped addr=%s: %v", r.cfg.Web.Listen, err)
			}
			return nil
		})
	}

	// Report feeds that are still down shortly after startup.
	g.Go(func() error {
		t := time.NewTimer(5 * time.Second)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		for _, f := range r.feeds {
			if s := f.Snapshot(); s.State != feed.StateStreaming {
				log.Printf("feed %s not streaming: state=%s last_error=%s", s.Name, s.State, s.LastError)
			}
		}
		return nil
	})

	return g.Wait()
}

func (r *runtime) Handler() http.Handler {
	d := web.Deps{
		Status:  r.status,
		Tracks:  r.store,
		Feeds:   r.FeedSnapshots,
		Logs:    r.logs,
		Metrics: r.registry,
	}
	if r.aircraft != nil {
		d.Aircraft = r.aircraft
	}
	return web.Handler(d)
}

// webError reports why the web server stopped, if it did.
func (r *runtime) webError() string {
	s, _ := r.webErr.Load().(string)
	return s
}

func (r *runtime) FeedSnapshots() []feed.Snapshot {
	out := make([]feed.Snapshot, 0, len(r.feeds))
	for _, f := range r.feeds {
		out = append(out, f.Snapshot())
	}
	return out
}

func (r *runtime) Close() {
	if r == nil {
		return
	}
	if r.audit != nil {
		if err := r.audit.Close(); err != nil {
			log.Printf("audit close: %v", err)
		}
		r.audit = nil
	}
	if r.aircraftCache != nil {
		_ = r.aircraftCache.Close()
		r.aircraftCache = nil
	}
}

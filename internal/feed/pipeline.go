package feed

import (
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"luftraum/internal/audit"
	"luftraum/internal/sbs"
	"luftraum/internal/track"
)

// Handler consumes raw lines received by a connector. feed names the
// connector for metrics and diagnostics; label is the audit source label.
type Handler interface {
	Ingest(feed, label, line string) error
}

// Pipeline is the per-line ingest path shared by every connector: audit the
// raw line, decode it, and apply it to the store.
type Pipeline struct {
	store   *track.Store
	audit   *audit.Logger
	metrics *Metrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPipeline returns a Pipeline writing to store. audit and metrics may be
// nil.
func NewPipeline(store *track.Store, auditLog *audit.Logger, metrics *Metrics) *Pipeline {
	return &Pipeline{
		store:    store,
		audit:    auditLog,
		metrics:  metrics,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Ingest handles one line received by feed and audited under label. Decode
// failures are returned for the caller's bookkeeping; they are never fatal to
// a feed.
func (p *Pipeline) Ingest(feed, label, line string) error {
	p.metrics.line(feed)

	if err := p.audit.Write(label, line); err != nil {
		p.metrics.auditError()
		if p.allow("audit") {
			log.Printf("audit write failed: %v", err)
		}
	}

	m, err := sbs.Decode(line)
	if err != nil {
		p.metrics.reject(feed, sbs.Reason(err))
		if p.allow(feed) {
			log.Printf("feed %s rejected line: %v", feed, err)
		}
		return err
	}

	p.store.Update(m)
	p.metrics.apply(feed)
	return nil
}

// allow limits diagnostics to a short burst and then one every 10s per key.
func (p *Pipeline) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(10*time.Second), 3)
		p.limiters[key] = l
	}
	return l.Allow()
}

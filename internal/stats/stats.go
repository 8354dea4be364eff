package stats

import (
	"context"
	"expvar"
	"log/slog"
	"sync"
	"time"
)

// Metric identifiers
const (
	Submitted = "submitted" //Counter
	Completed = "completed" //Counter
	Failed    = "failed"    //Counter
	Panics    = "panics"    //Counter
	Active    = "active"    //Gauge
)

var (
	publishMu sync.Mutex
	published = map[string]*expvar.Map{}
)

// Stats wraps an expvar Map and periodically reports it.
type Stats struct {
	*expvar.Map
	interval time.Duration
	logger   *slog.Logger
}

// New returns the Stats registered under id. expvar names are global, so
// repeated calls with the same id share one map.
func New(id string, interval time.Duration, logger *slog.Logger) *Stats {
	if logger == nil {
		logger = slog.Default()
	}
	publishMu.Lock()
	m, ok := published[id]
	if !ok {
		m = expvar.NewMap(id)
		published[id] = m
	}
	publishMu.Unlock()

	return &Stats{Map: m, interval: interval, logger: logger.With("component", "stats")}
}

// Get returns the current value of a counter or gauge, 0 when unset.
func (s *Stats) Get(key string) int64 {
	if v, ok := s.Map.Get(key).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}

// Run logs a summary every interval until ctx is cancelled.
func (s *Stats) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stats reporter exiting")
			return nil
		case <-tick.C:
			s.logger.Info("downloads",
				Submitted, s.Get(Submitted),
				Completed, s.Get(Completed),
				Failed, s.Get(Failed),
				Panics, s.Get(Panics),
				Active, s.Get(Active),
			)
		}
	}
}

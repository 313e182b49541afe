package netmon

import (
	"context"
	"errors"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/tevino/abool"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// DefaultSampleInterval is how often the monitor samples connections.
const DefaultSampleInterval = 3 * time.Second

// ErrAlreadyRunning is returned when Run is called on a running monitor.
var ErrAlreadyRunning = errors.New("monitor already running")

var samplesTotal = metrics.GetOrCreateCounter("privguard_netmon_samples_total")

// Snapshot is one sample of the connection table.
type Snapshot struct {
	Connections []domain.NetworkConnection
	Suspects    int
	TakenAt     time.Time
	Err         error
}

// Sink receives snapshots. It runs on the monitor goroutine.
type Sink func(Snapshot)

// Monitor samples the classifier on a fixed interval.
type Monitor struct {
	classifier *Classifier
	interval   time.Duration
	running    *abool.AtomicBool
	logger     *zap.Logger
}

// NewMonitor creates a monitor. A non-positive interval uses the default.
func NewMonitor(classifier *Classifier, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Monitor{
		classifier: classifier,
		interval:   interval,
		running:    abool.New(),
		logger:     logger,
	}
}

// Run samples immediately and then on every tick until ctx is canceled.
func (m *Monitor) Run(ctx context.Context, sink Sink) error {
	if !m.running.SetToIf(false, true) {
		return ErrAlreadyRunning
	}
	defer m.running.UnSet()

	m.logger.Info("network monitor started", zap.Duration("interval", m.interval))
	m.sample(ctx, sink)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("network monitor stopping")
			return ctx.Err()

		case <-ticker.C:
			m.sample(ctx, sink)
		}
	}
}

// IsRunning reports whether Run is active.
func (m *Monitor) IsRunning() bool {
	return m.running.IsSet()
}

func (m *Monitor) sample(ctx context.Context, sink Sink) {
	samplesTotal.Inc()
	conns, err := m.classifier.Scan(ctx)
	if err != nil {
		m.logger.Warn("connection sample failed", zap.Error(err))
	}

	snap := Snapshot{Connections: conns, TakenAt: time.Now(), Err: err}
	for _, c := range conns {
		if c.IsSuspect {
			snap.Suspects++
		}
	}
	sink(snap)
}

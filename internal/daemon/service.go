// Package daemon provides the long-running case directory watcher service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/pipeline"
	"github.com/theirongolddev/estateplan/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	CasesDir             string
	FallbackJurisdiction string
	IncludeFederal       bool
	JurisdictionFilter   string
	PlanFilter           string
	UseCache             bool
	CachePath            string
	Interval             time.Duration
	Debounce             time.Duration
	Watch                bool
	Addr                 string
	EventsBuffer         int
	Logger               *slog.Logger
}

// Snapshot is a compact portfolio state for status/event payloads.
type Snapshot struct {
	At           time.Time `json:"at"`
	Cases        int       `json:"cases"`
	MarriedCases int       `json:"married_cases"`
	TotalEstate  float64   `json:"total_estate"`
	TotalTrust   float64   `json:"total_trust"`
	TaxNoPlan    float64   `json:"tax_no_plan"`
	TaxWithPlan  float64   `json:"tax_with_plan"`
	Savings      float64   `json:"savings"`
	CombinedTax  float64   `json:"combined_tax"`
	FileErrors   int       `json:"file_errors"`
	ParseErrors  int       `json:"parse_errors"`
}

// Delta captures snapshot changes between polls.
type Delta struct {
	Cases       int     `json:"cases"`
	TotalEstate float64 `json:"total_estate"`
	TaxNoPlan   float64 `json:"tax_no_plan"`
	Savings     float64 `json:"savings"`
	CombinedTax float64 `json:"combined_tax"`
}

func (d Delta) isZero() bool {
	return d.Cases == 0 &&
		nearZero(d.TotalEstate) &&
		nearZero(d.TaxNoPlan) &&
		nearZero(d.Savings) &&
		nearZero(d.CombinedTax)
}

func nearZero(v float64) bool { return math.Abs(v) < 0.005 }

// Event types published to /v1/events and /v1/stream.
const (
	EventSnapshot       = "snapshot"
	EventPortfolioDelta = "portfolio_delta"
)

// Event is emitted whenever the portfolio snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Trigger   string    `json:"trigger,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastPollAt         time.Time `json:"last_poll_at"`
	PollIntervalSec    int       `json:"poll_interval_sec"`
	PollCount          int64     `json:"poll_count"`
	Watching           bool      `json:"watching"`
	CasesDir           string    `json:"cases_dir"`
	JurisdictionFilter string    `json:"jurisdiction_filter,omitempty"`
	PlanFilter         string    `json:"plan_filter,omitempty"`
	Summary            Snapshot  `json:"summary"`
	LastError          string    `json:"last_error,omitempty"`
	EventCount         int       `json:"event_count"`
	SubscriberCount    int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     *slog.Logger
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	watching    bool
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = pipeline.CachePath()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		log:       logger.With(slog.String("component", "daemon")),
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP routes served by the daemon.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

// Run starts HTTP endpoints, the directory watcher, and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var changes <-chan struct{}
	if s.cfg.Watch {
		w, err := newDirWatcher(s.cfg.CasesDir, s.cfg.Debounce, s.log)
		if err != nil {
			s.log.Warn("directory watch unavailable, polling only",
				slog.String("dir", s.cfg.CasesDir),
				slog.String("error", err.Error()))
		} else {
			defer w.Close()
			go w.Run(ctx)
			changes = w.Changes()
			s.setWatching(true)
		}
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce("startup")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce("interval")
		case <-changes:
			s.pollOnce("watch")
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) setWatching(v bool) {
	s.mu.Lock()
	s.watching = v
	s.mu.Unlock()
}

func (s *Service) pollOnce(trigger string) {
	start := time.Now()
	result, err := s.loadCases()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.metrics.observePoll("error", time.Since(start))
		s.log.Error("poll failed", slog.String("trigger", trigger), slog.String("error", err.Error()))
		return
	}

	cases := result.Cases
	if s.cfg.JurisdictionFilter != "" {
		cases = pipeline.FilterByJurisdiction(cases, s.cfg.JurisdictionFilter)
	}
	if s.cfg.PlanFilter != "" {
		cases = pipeline.FilterByPlan(cases, s.cfg.PlanFilter)
	}

	now := time.Now()
	summary := pipeline.Summarize(pipeline.AnalyzeAll(cases, s.cfg.FallbackJurisdiction, s.cfg.IncludeFederal))
	snap := snapshotFromSummary(summary, now)
	snap.FileErrors = result.FileErrors
	snap.ParseErrors = result.ParseErrors

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Trigger: trigger, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventPortfolioDelta, Timestamp: now, Trigger: trigger, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	s.metrics.observePoll("ok", time.Since(start))
	s.metrics.setSnapshot(snap)

	if publish {
		s.log.Info("portfolio updated",
			slog.String("trigger", trigger),
			slog.String("event", ev.Type),
			slog.Int("cases", snap.Cases),
			slog.Float64("savings", snap.Savings),
			slog.Duration("took", time.Since(start)))
		s.publishEvent(ev)
	}
}

func (s *Service) loadCases() (*pipeline.LoadResult, error) {
	if s.cfg.UseCache {
		cache, err := store.Open(s.cfg.CachePath)
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.CasesDir, cache, nil)
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			s.log.Warn("cache load failed, reparsing", slog.String("error", loadErr.Error()))
		}
	}

	return pipeline.Load(s.cfg.CasesDir, nil)
}

func snapshotFromSummary(sum model.PortfolioSummary, at time.Time) Snapshot {
	return Snapshot{
		At:           at,
		Cases:        sum.Cases,
		MarriedCases: sum.MarriedCases,
		TotalEstate:  sum.TotalEstate,
		TotalTrust:   sum.TotalTrust,
		TaxNoPlan:    sum.TaxNoPlan,
		TaxWithPlan:  sum.TaxWithPlan,
		Savings:      sum.Savings,
		CombinedTax:  sum.CombinedTax,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Cases:       curr.Cases - prev.Cases,
		TotalEstate: curr.TotalEstate - prev.TotalEstate,
		TaxNoPlan:   curr.TaxNoPlan - prev.TaxNoPlan,
		Savings:     curr.Savings - prev.Savings,
		CombinedTax: curr.CombinedTax - prev.CombinedTax,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:          s.startedAt,
		LastPollAt:         s.lastPollAt,
		PollIntervalSec:    int(s.cfg.Interval.Seconds()),
		PollCount:          s.pollCount,
		Watching:           s.watching,
		CasesDir:           s.cfg.CasesDir,
		JurisdictionFilter: s.cfg.JurisdictionFilter,
		PlanFilter:         s.cfg.PlanFilter,
		Summary:            s.snapshot,
		LastError:          s.lastError,
		EventCount:         len(s.events),
		SubscriberCount:    len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

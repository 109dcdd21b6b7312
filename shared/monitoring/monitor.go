package monitoring

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"video-qa/internal/models"
	"video-qa/shared/logging"
)

// StrategyStats counts the outcomes of one acquisition strategy.
type StrategyStats struct {
	Attempts  int           `json:"attempts"`
	Successes int           `json:"successes"`
	Failures  int           `json:"failures"`
	LastError string        `json:"last_error,omitempty"`
	TotalTime time.Duration `json:"total_time"`
}

// Status is a point-in-time copy of everything the monitor tracks.
type Status struct {
	Healthy       bool                     `json:"healthy"`
	Summary       string                   `json:"summary"`
	StartedAt     time.Time                `json:"started_at"`
	LastRunTime   time.Time                `json:"last_run_time,omitempty"`
	Processed     int                      `json:"videos_processed"`
	NoTranscript  int                      `json:"videos_without_transcript"`
	Questions     int                      `json:"questions_answered"`
	StrategyOrder []string                 `json:"strategy_order"`
	Strategies    map[string]StrategyStats `json:"strategies"`
}

type Monitor struct {
	mu             sync.Mutex
	startedAt      time.Time
	lastRunSuccess bool
	lastRunTime    time.Time
	processed      int
	noTranscript   int
	questions      int
	strategies     map[string]*StrategyStats
}

func NewMonitor() *Monitor {
	return &Monitor{
		startedAt:  time.Now(),
		strategies: make(map[string]*StrategyStats),
	}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	logging.Base().WithField("took", duration).Infof("Run completed successfully - %s", summary)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Don't change health status for partial failures
	logging.Base().WithError(err).WithField("took", duration).Warn("PARTIAL FAILURE")
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	logging.Base().WithError(err).WithField("took", duration).Error("CRITICAL FAILURE")
}

// RecordAttempt folds one strategy outcome into the per-strategy counters.
func (m *Monitor) RecordAttempt(attempt models.AcquisitionAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.strategies[attempt.Strategy]
	if !ok {
		st = &StrategyStats{}
		m.strategies[attempt.Strategy] = st
	}
	st.Attempts++
	st.TotalTime += attempt.Duration
	if attempt.Success {
		st.Successes++
		return
	}
	st.Failures++
	st.LastError = attempt.Cause
}

// RecordProcessed counts a finished acquisition request.
func (m *Monitor) RecordProcessed(found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	if !found {
		m.noTranscript++
	}
}

func (m *Monitor) RecordQuestion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions++
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy()
}

func (m *Monitor) healthy() bool {
	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary()
}

func (m *Monitor) summary() string {
	counts := fmt.Sprintf("%d videos processed, %d without transcript, %d questions", m.processed, m.noTranscript, m.questions)
	if m.lastRunTime.IsZero() {
		return "No maintenance runs yet; " + counts
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s; %s", m.lastRunTime.Format("Jan 2 15:04"), counts)
	}
	return fmt.Sprintf("Last run failed: %s; %s", m.lastRunTime.Format("Jan 2 15:04"), counts)
}

// Status returns a copy of the current counters.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Healthy:      m.healthy(),
		Summary:      m.summary(),
		StartedAt:    m.startedAt,
		LastRunTime:  m.lastRunTime,
		Processed:    m.processed,
		NoTranscript: m.noTranscript,
		Questions:    m.questions,
		Strategies:   make(map[string]StrategyStats, len(m.strategies)),
	}
	for name, s := range m.strategies {
		st.Strategies[name] = *s
		st.StrategyOrder = append(st.StrategyOrder, name)
	}
	sort.Strings(st.StrategyOrder)
	return st
}

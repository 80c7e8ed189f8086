package notifications

import (
	"sync"
	"time"
)

const defaultRecentDispatches = 20

// DispatchSummary is the condensed record of one dispatch cycle.
type DispatchSummary struct {
	DedupKey string    `json:"dedupKey,omitempty"`
	Title    string    `json:"title"`
	Sent     int       `json:"sent"`
	Failed   int       `json:"failed"`
	Pruned   int       `json:"pruned"`
	At       time.Time `json:"at"`
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Outcomes       map[Outcome]int   `json:"outcomes"`
	Dispatches     int               `json:"dispatches"`
	Pruned         int               `json:"pruned"`
	Recent         []DispatchSummary `json:"recent"`
	LastDispatchAt *time.Time        `json:"lastDispatchAt,omitempty"`
}

// Stats aggregates dispatch outcomes in memory. The zero value is not usable;
// call NewStats.
type Stats struct {
	mu         sync.Mutex
	outcomes   map[Outcome]int
	dispatches int
	pruned     int
	recent     []DispatchSummary
	keep       int
}

// NewStats keeps the last keep dispatch summaries (20 when keep <= 0).
func NewStats(keep int) *Stats {
	if keep <= 0 {
		keep = defaultRecentDispatches
	}
	return &Stats{
		outcomes: map[Outcome]int{
			OutcomeSent:             0,
			OutcomeTransientFailure: 0,
			OutcomePermanentFailure: 0,
		},
		keep: keep,
	}
}

func (s *Stats) Observe(event NotificationEvent, res Result, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range res.Attempts {
		s.outcomes[a.Outcome]++
	}
	s.dispatches++
	s.pruned += res.Pruned

	s.recent = append(s.recent, DispatchSummary{
		DedupKey: event.DedupKey,
		Title:    event.Title,
		Sent:     res.Sent,
		Failed:   res.Failed,
		Pruned:   res.Pruned,
		At:       at,
	})
	if len(s.recent) > s.keep {
		s.recent = s.recent[len(s.recent)-s.keep:]
	}
}

// Snapshot returns a copy with the most recent dispatch first.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Outcomes:   make(map[Outcome]int, len(s.outcomes)),
		Dispatches: s.dispatches,
		Pruned:     s.pruned,
		Recent:     make([]DispatchSummary, 0, len(s.recent)),
	}
	for k, v := range s.outcomes {
		snap.Outcomes[k] = v
	}
	for i := len(s.recent) - 1; i >= 0; i-- {
		snap.Recent = append(snap.Recent, s.recent[i])
	}
	if n := len(s.recent); n > 0 {
		last := s.recent[n-1].At
		snap.LastDispatchAt = &last
	}
	return snap
}

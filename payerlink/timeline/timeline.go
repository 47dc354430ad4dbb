// Package timeline tracks authorization decision service levels. Every
// authorization request opens a timeline with a due-by deadline derived
// from its priority; the decision closes it exactly once and fixes the
// compliance verdict permanently.
package timeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aurelianware/payerlink/log"
	errs "github.com/aurelianware/payerlink/payerlink/errors"
	"github.com/aurelianware/payerlink/payerlink/models"
	"github.com/aurelianware/payerlink/payerlink/utils"
)

// Config holds the decision windows per priority.
type Config struct {
	UrgentWindow   time.Duration
	StandardWindow time.Duration
}

// LoadConfig resolves the decision windows from the environment
// (PLX_TIMELINE_URGENT_HOURS, PLX_TIMELINE_STANDARD_HOURS), defaulting to
// the regulatory 72 hour urgent and 7 day standard windows.
func LoadConfig() Config {
	return Config{
		UrgentWindow:   time.Duration(utils.GetEnvInt("PLX_TIMELINE_URGENT_HOURS", 72)) * time.Hour,
		StandardWindow: time.Duration(utils.GetEnvInt("PLX_TIMELINE_STANDARD_HOURS", 168)) * time.Hour,
	}
}

func (c Config) window(priority models.TimelinePriority) time.Duration {
	if priority == models.PriorityUrgent {
		return c.UrgentWindow
	}
	return c.StandardWindow
}

// Tracker owns the open and decided timelines. It is safe for concurrent
// use.
type Tracker struct {
	cfg Config
	now func() time.Time

	mu        sync.RWMutex
	timelines map[string]*models.AuthorizationTimeline
}

func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:       cfg,
		now:       time.Now,
		timelines: make(map[string]*models.AuthorizationTimeline),
	}
}

// Open starts the timeline for an authorization request at its submission
// instant. Reopening an existing request is an error; the submission
// instant and priority are immutable once recorded.
func (t *Tracker) Open(_ context.Context, requestID string, priority models.TimelinePriority, submittedAt time.Time) (*models.AuthorizationTimeline, error) {
	if requestID == "" {
		return nil, errors.New("request ID is required")
	}
	if priority != models.PriorityUrgent && priority != models.PriorityStandard {
		return nil, errors.Errorf("unknown timeline priority %q", priority)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.timelines[requestID]; exists {
		return nil, errors.Errorf("timeline already open for request %s", requestID)
	}

	tl := &models.AuthorizationTimeline{
		RequestID:     requestID,
		Priority:      priority,
		SubmittedAt:   submittedAt,
		DecisionDueBy: submittedAt.Add(t.cfg.window(priority)),
	}
	t.timelines[requestID] = tl

	log.Timeline.WithFields(logrus.Fields{
		"requestID": requestID,
		"priority":  priority,
		"dueBy":     tl.DecisionDueBy,
	}).Info("Authorization timeline opened")

	copied := *tl
	return &copied, nil
}

// Decide records the decision instant and fixes the compliance verdict: on
// time when the decision lands at or before the deadline. A timeline is
// decided exactly once; a second decision is rejected, not overwritten.
func (t *Tracker) Decide(_ context.Context, requestID string, decidedAt time.Time) (*models.AuthorizationTimeline, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tl, ok := t.timelines[requestID]
	if !ok {
		return nil, errors.Errorf("no timeline open for request %s", requestID)
	}
	if tl.Decided() {
		return nil, &errs.TimelineError{Kind: errs.AlreadyDecided, RequestID: requestID}
	}

	decided := decidedAt
	compliant := !decided.After(tl.DecisionDueBy)
	tl.DecidedAt = &decided
	tl.Compliant = &compliant

	entry := log.Timeline.WithFields(logrus.Fields{
		"requestID": requestID,
		"compliant": compliant,
	})
	if compliant {
		entry.Info("Authorization timeline decided")
	} else {
		entry.Warn("Authorization timeline decided past its deadline")
	}

	copied := *tl
	return &copied, nil
}

// Get returns the timeline for a request, or nil when none is open.
func (t *Tracker) Get(_ context.Context, requestID string) *models.AuthorizationTimeline {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tl, ok := t.timelines[requestID]
	if !ok {
		return nil
	}
	copied := *tl
	return &copied
}

// Overdue returns the undecided timelines whose deadline has passed,
// ordered by deadline. These feed escalation, not automatic denial: an
// overdue request stays open until a real decision arrives.
func (t *Tracker) Overdue(_ context.Context) []*models.AuthorizationTimeline {
	now := t.now()

	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*models.AuthorizationTimeline
	for _, tl := range t.timelines {
		if !tl.Decided() && now.After(tl.DecisionDueBy) {
			copied := *tl
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DecisionDueBy.Before(out[j].DecisionDueBy)
	})
	return out
}

// ComplianceReport aggregates timeline outcomes for auditors.
type ComplianceReport struct {
	Total   int `json:"total"`
	OnTime  int `json:"onTime"`
	Late    int `json:"late"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// Report summarizes every timeline the tracker holds. Pending counts
// undecided timelines still inside their window; overdue the undecided past
// it.
func (t *Tracker) Report(_ context.Context) ComplianceReport {
	now := t.now()

	t.mu.RLock()
	defer t.mu.RUnlock()
	var r ComplianceReport
	for _, tl := range t.timelines {
		r.Total++
		switch {
		case tl.Decided() && *tl.Compliant:
			r.OnTime++
		case tl.Decided():
			r.Late++
		case now.After(tl.DecisionDueBy):
			r.Overdue++
		default:
			r.Pending++
		}
	}
	return r
}

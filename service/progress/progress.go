package progress

import (
	"sync"
	"time"

	cm "github.com/easierway/concurrent_map"
	"go.uber.org/atomic"
)

// Job states, in the order a run moves through them.
const (
	StateQueued      = "queued"
	StateFetched     = "fetched"
	StateCleared     = "cleared"
	StateIdentifying = "identifying"
	StatePricing     = "pricing"
	StateReporting   = "reporting"
	StateDone        = "done"
	StateFailed      = "failed"
)

// Tracker is the live progress of one billing job. The billing goroutine
// writes it, the status API reads snapshots; only observability depends on
// it, never correctness.
type Tracker struct {
	ID           string
	Class        string
	CustomerID   int64
	CustomerName string
	Year         int
	Month        int
	StartedAt    time.Time

	state  atomic.String
	origin atomic.String
	done   atomic.Int64
	total  atomic.Int64
	errMsg atomic.String
}

func (t *Tracker) SetState(s string)  { t.state.Store(s) }
func (t *Tracker) SetOrigin(o string) { t.origin.Store(o) }
func (t *Tracker) SetTotal(n int64)   { t.total.Store(n); t.done.Store(0) }
func (t *Tracker) Add(n int64)        { t.done.Add(n) }

func (t *Tracker) Fail(err error) {
	t.state.Store(StateFailed)
	t.errMsg.Store(err.Error())
}

// Status is one read-only snapshot of a tracker.
type Status struct {
	ID           string    `json:"id"`
	Class        string    `json:"class"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	StartedAt    time.Time `json:"started_at"`
	State        string    `json:"state"`
	Origin       string    `json:"origin,omitempty"`
	Done         int64     `json:"done"`
	Total        int64     `json:"total"`
	Percent      float64   `json:"percent"`
	Error        string    `json:"error,omitempty"`
}

func (t *Tracker) Snapshot() Status {
	st := Status{
		ID:           t.ID,
		Class:        t.Class,
		CustomerID:   t.CustomerID,
		CustomerName: t.CustomerName,
		Year:         t.Year,
		Month:        t.Month,
		StartedAt:    t.StartedAt,
		State:        t.state.Load(),
		Origin:       t.origin.Load(),
		Done:         t.done.Load(),
		Total:        t.total.Load(),
		Error:        t.errMsg.Load(),
	}
	if st.Total > 0 {
		st.Percent = 100.0 * float64(st.Done) / float64(st.Total)
	}
	return st
}

// Registry keeps the trackers of every job this process has seen. The map
// itself is safe for concurrent use; the id list keeps insertion order for
// listings.
type Registry struct {
	m   *cm.ConcurrentMap
	mu  sync.Mutex
	ids []string
}

func NewRegistry() *Registry {
	return &Registry{m: cm.CreateConcurrentMap(32)}
}

func (r *Registry) Track(t *Tracker) {
	if _, ok := r.m.Get(cm.StrKey(t.ID)); !ok {
		r.mu.Lock()
		r.ids = append(r.ids, t.ID)
		r.mu.Unlock()
	}
	r.m.Set(cm.StrKey(t.ID), t)
}

func (r *Registry) Get(id string) (*Tracker, bool) {
	v, ok := r.m.Get(cm.StrKey(id))
	if !ok {
		return nil, false
	}
	return v.(*Tracker), true
}

func (r *Registry) All() []Status {
	r.mu.Lock()
	ids := make([]string, len(r.ids))
	copy(ids, r.ids)
	r.mu.Unlock()

	out := make([]Status, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.Get(id); ok {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

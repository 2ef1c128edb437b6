package progress

import (
	"errors"
	"testing"
	"time"
)

func TestTrackerSnapshot(t *testing.T) {
	tr := &Tracker{
		ID:           "job-1",
		Class:        "CustomerBillJob",
		CustomerID:   512,
		CustomerName: "Acme",
		Year:         2026,
		Month:        3,
		StartedAt:    time.Now(),
	}
	tr.SetState(StatePricing)
	tr.SetOrigin("El Paso HQ")
	tr.SetTotal(200)
	tr.Add(50)

	st := tr.Snapshot()
	if st.State != StatePricing || st.Origin != "El Paso HQ" {
		t.Fatalf("snapshot = %+v", st)
	}
	if st.Done != 50 || st.Total != 200 || st.Percent != 25 {
		t.Fatalf("snapshot = %+v", st)
	}

	// a new origin's total resets the counter
	tr.SetTotal(10)
	if st := tr.Snapshot(); st.Done != 0 {
		t.Fatalf("done = %d after SetTotal", st.Done)
	}

	tr.Fail(errors.New("netsuite timeout"))
	if st := tr.Snapshot(); st.State != StateFailed || st.Error != "netsuite timeout" {
		t.Fatalf("snapshot = %+v", st)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		r.Track(&Tracker{ID: id})
	}

	if _, ok := r.Get("b"); !ok {
		t.Fatal("tracker b not found")
	}
	if _, ok := r.Get("z"); ok {
		t.Fatal("unknown id should not resolve")
	}

	all := r.All()
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Fatalf("all = %+v", all)
	}

	// re-tracking an id must not duplicate the listing
	r.Track(&Tracker{ID: "b"})
	if all := r.All(); len(all) != 3 {
		t.Fatalf("all after re-track = %+v", all)
	}
}

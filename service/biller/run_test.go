package biller

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"transtelco-billing/dao"
	"transtelco-billing/netsuite"
	"transtelco-billing/rating"
	"transtelco-billing/service/progress"
)

const billTestTable = "call_detail_records_202603"

// One customer, one origin, a two-call us_local plan and a 0.02 regular
// rate behind it.
const billTestInfo = `{
  "customer": {"id": 512, "name": "Acme Maquila"},
  "origins": {
    "1": {
      "internal_id": 201,
      "name": "El Paso HQ",
      "rate": {"internal_id": 30, "name": "US Standard"},
      "trunk_type": {"internal_id": 4, "name": "Americana"},
      "rate_overrides": {},
      "prefix_overrides": {},
      "plans": {
        "a": {"internal_id": 51, "volume": 2, "call_type": {"internal_id": 2, "name": "us_local"}}
      },
      "identifiers": {
        "1": {"internal_id": 70, "rxlist_ipaddr": "", "eq_name": "EP-GW1", "rxlist_srcnumbers": ""}
      },
      "inbound_rates": {}
    }
  },
  "rates": {
    "0": {"internal_id": 30, "name": "US Standard", "currency": {"internal_id": 1, "name": "USD"},
          "trunk_type": {"internal_id": 4, "name": "Americana"}, "local_prefix": "1915",
          "us_local": 0.02}
  },
  "trunk_types": {"4": {"currency": "USD"}},
  "global_rates": {}
}`

// billTestStore opens a throwaway sqlite store with four records: three
// owned by EP-GW1 (id 3 carries the earliest call_date) and one foreign.
func billTestStore(t *testing.T) (*gorm.DB, *dao.Dao) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	err = db.Exec("CREATE TABLE `" + billTestTable + "` (" +
		"id integer PRIMARY KEY, gateway text, host text, identifier text, " +
		"call_date datetime, source text, destination text, duration integer, " +
		"customer_id integer, origin_id integer, pricing_method text, " +
		"call_type text, trunk_type text, currency text, minutes integer, total real)").Error
	if err != nil {
		t.Fatal(err)
	}

	d := dao.NewWithDB(db)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []*dao.CallRecord{
		{ID: 1, Gateway: "EP-GW1", Host: "10.20.30.44", CallDate: base.Add(time.Minute), Source: "19155550100", Destination: "19154002903", Duration: 61},
		{ID: 2, Gateway: "EP-GW1", Host: "10.20.30.44", CallDate: base.Add(2 * time.Minute), Source: "19155550100", Destination: "19154002903", Duration: 61},
		{ID: 3, Gateway: "EP-GW1", Host: "10.20.30.44", CallDate: base, Source: "19155550100", Destination: "19154002903", Duration: 61},
		{ID: 4, Gateway: "CORE-X", Host: "10.99.0.1", CallDate: base, Source: "12125550100", Destination: "19154002903", Duration: 120},
	}
	if err := d.MultiInsertCDR(billTestTable, records); err != nil {
		t.Fatal(err)
	}
	return db, d
}

func billTestBiller(t *testing.T, d *dao.Dao, c *Config) *Biller {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, billTestInfo)
	}))
	t.Cleanup(srv.Close)
	ns := netsuite.New(&netsuite.Config{
		RestletURL: srv.URL,
		Account:    "1234567",
		Email:      "billing@example.com",
		Password:   "secret",
		Role:       "3",
		Script:     42,
		Deploy:     1,
	})
	ref, err := rating.ParseReferenceTable(rating.TrunkAmericana, map[string]map[string]string{
		"us_local": {"1915": "El Paso TX"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.InvoiceDir == "" {
		c.InvoiceDir = t.TempDir()
	}
	return New(c, d, ns, ref, nil, nil)
}

func loadBillTestRecords(t *testing.T, db *gorm.DB) map[int64]dao.CallRecord {
	t.Helper()
	var recs []dao.CallRecord
	if err := db.Table(billTestTable).Order("id").Find(&recs).Error; err != nil {
		t.Fatal(err)
	}
	m := make(map[int64]dao.CallRecord, len(recs))
	for _, r := range recs {
		m[r.ID] = r
	}
	return m
}

func derefID(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// annotationSummary flattens the mutable columns so two runs can be
// compared wholesale.
func annotationSummary(recs map[int64]dao.CallRecord) string {
	s := ""
	for id := int64(1); id <= int64(len(recs)); id++ {
		r := recs[id]
		s += fmt.Sprintf("%d:%d/%d/%q/%q/%d/%.4f;",
			id, derefID(r.CustomerID), derefID(r.OriginID),
			derefStr(r.PricingMethod), derefStr(r.CallType), deref(r.Minutes), derefFloat(r.Total))
	}
	return s
}

func TestBillPricesInCallDateOrder(t *testing.T) {
	db, d := billTestStore(t)
	b := billTestBiller(t, d, &Config{BatchSize: 2})
	job := CustomerBillJob{CustomerID: 512, CustomerName: "Acme Maquila", Year: 2026, Month: 3}

	if err := b.Bill(job, &progress.Tracker{}); err != nil {
		t.Fatal(err)
	}

	recs := loadBillTestRecords(t, db)
	if len(recs) != 4 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[4].CustomerID != nil || recs[4].PricingMethod != nil {
		t.Fatalf("foreign record annotated: %+v", recs[4])
	}
	for _, id := range []int64{1, 2, 3} {
		r := recs[id]
		if r.CustomerID == nil || *r.CustomerID != 512 || r.OriginID == nil || *r.OriginID != 201 {
			t.Fatalf("record %d not owned: %+v", id, r)
		}
		if r.PricingMethod == nil {
			t.Fatalf("record %d not priced", id)
		}
	}

	// the plan consumes the two earliest call_dates (ids 3 then 1), the
	// latest call falls through to the regular rate
	if got := *recs[3].PricingMethod; got != "plan" {
		t.Fatalf("record 3 method = %q", got)
	}
	if got := *recs[1].PricingMethod; got != "plan" {
		t.Fatalf("record 1 method = %q", got)
	}
	r2 := recs[2]
	if got := *r2.PricingMethod; got != "regular_rate" {
		t.Fatalf("record 2 method = %q", got)
	}
	if *r2.CallType != "us_local" || *r2.TrunkType != "americana" || *r2.Currency != "USD" {
		t.Fatalf("record 2 classification: %+v", r2)
	}
	if *r2.Minutes != 2 {
		t.Fatalf("record 2 minutes = %d", *r2.Minutes)
	}
	if *r2.Total != 0.02 {
		t.Fatalf("record 2 total = %v", *r2.Total)
	}
	if *recs[1].Total != 0 || *recs[3].Total != 0 {
		t.Fatal("plan calls must price at zero")
	}

	// a second run clears and rebuilds, the annotations must come out
	// identical
	first := annotationSummary(recs)
	if err := b.Bill(job, &progress.Tracker{}); err != nil {
		t.Fatal(err)
	}
	if second := annotationSummary(loadBillTestRecords(t, db)); second != first {
		t.Fatalf("re-run changed annotations:\n first: %s\nsecond: %s", first, second)
	}
}

func TestBillSkipIdentificationUsesPersistedOwnership(t *testing.T) {
	db, d := billTestStore(t)
	if err := d.TagOwnership(billTestTable, []int64{1, 2, 3}, 512, 201); err != nil {
		t.Fatal(err)
	}

	b := billTestBiller(t, d, &Config{BatchSize: 2, SkipIdentification: true})
	job := CustomerBillJob{CustomerID: 512, CustomerName: "Acme Maquila", Year: 2026, Month: 3}
	if err := b.Bill(job, &progress.Tracker{}); err != nil {
		t.Fatal(err)
	}

	recs := loadBillTestRecords(t, db)
	for _, id := range []int64{1, 2, 3} {
		r := recs[id]
		if r.CustomerID == nil || *r.CustomerID != 512 {
			t.Fatalf("record %d lost its ownership tag: %+v", id, r)
		}
		if r.PricingMethod == nil {
			t.Fatalf("record %d not priced from the persisted tags", id)
		}
	}
	if got := *recs[2].PricingMethod; got != "regular_rate" {
		t.Fatalf("record 2 method = %q", got)
	}
}

func TestBillSkipPricingKeepsPersistedPricing(t *testing.T) {
	db, d := billTestStore(t)
	job := CustomerBillJob{CustomerID: 512, CustomerName: "Acme Maquila", Year: 2026, Month: 3}

	if err := billTestBiller(t, d, &Config{BatchSize: 2}).Bill(job, &progress.Tracker{}); err != nil {
		t.Fatal(err)
	}
	priced := annotationSummary(loadBillTestRecords(t, db))

	b := billTestBiller(t, d, &Config{BatchSize: 2, SkipPricing: true})
	if err := b.Bill(job, &progress.Tracker{}); err != nil {
		t.Fatal(err)
	}
	if got := annotationSummary(loadBillTestRecords(t, db)); got != priced {
		t.Fatalf("skip-pricing run touched the pricing columns:\nbefore: %s\n after: %s", priced, got)
	}
}

package databilling

import (
	"testing"
	"time"

	"transtelco-billing/cacti"
)

func TestParseGraphDef(t *testing.T) {
	def, err := ParseGraphDef("1234:d:i:o:x:o")
	if err != nil {
		t.Fatal(err)
	}
	if def.GraphID != 1234 {
		t.Fatalf("graph id = %d", def.GraphID)
	}
	if len(def.Inbound) != 1 || def.Inbound[0] != 1 {
		t.Fatalf("inbound cols = %v", def.Inbound)
	}
	if len(def.Outbound) != 2 || def.Outbound[0] != 2 || def.Outbound[1] != 4 {
		t.Fatalf("outbound cols = %v", def.Outbound)
	}

	for _, bad := range []string{"", "1234", "1234:i:o", "abc:d:i", "1234:d", "1234:d:q"} {
		if _, err := ParseGraphDef(bad); err == nil {
			t.Errorf("ParseGraphDef(%q) should fail", bad)
		}
	}
}

func TestParsePricingDef(t *testing.T) {
	def, err := ParsePricingDef("0.30 <500:0.45 <100:0.60")
	if err != nil {
		t.Fatal(err)
	}
	if def.DefaultPrice != 0.30 {
		t.Fatalf("default = %v", def.DefaultPrice)
	}
	if len(def.Steps) != 2 || def.Steps[0].UpTo != 100 || def.Steps[1].UpTo != 500 {
		t.Fatalf("steps not sorted ascending: %+v", def.Steps)
	}

	cases := []struct {
		mb    float64
		price float64
	}{
		{50, 0.60},
		{100, 0.60},
		{100.5, 0.45},
		{500, 0.45},
		{501, 0.30},
	}
	for _, c := range cases {
		if got := def.PriceFor(c.mb); got != c.price {
			t.Errorf("PriceFor(%v) = %v, want %v", c.mb, got, c.price)
		}
	}

	for _, bad := range []string{"", "abc", "0.30 500:0.45", "0.30 <x:1"} {
		if _, err := ParsePricingDef(bad); err == nil {
			t.Errorf("ParsePricingDef(%q) should fail", bad)
		}
	}
}

func TestAnalyze(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g := &cacti.Graph{Title: "acme - traffic"}
	// 20 samples, outbound in column 2 climbing 1..20 Mbit
	for i := 0; i < 20; i++ {
		g.Samples = append(g.Samples, cacti.Sample{
			Time:   base.Add(time.Duration(i) * 5 * time.Minute),
			Values: []float64{0, 1000, float64(i+1) * 1024 * 1024},
		})
	}
	gd, err := ParseGraphDef("77:d:i:o")
	if err != nil {
		t.Fatal(err)
	}
	pd, err := ParsePricingDef("0.30 <10:0.60")
	if err != nil {
		t.Fatal(err)
	}

	res, subtotals, err := Analyze(g, gd, pd)
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples != 20 {
		t.Fatalf("samples = %d", res.Samples)
	}
	// ceil(20 * 0.95) = 19
	if res.Percentile != 19 {
		t.Fatalf("percentile rank = %d, want 19", res.Percentile)
	}
	if res.BPS != 19*1024*1024 {
		t.Fatalf("bps = %v", res.BPS)
	}
	if res.MBs != 19 {
		t.Fatalf("mbs = %v", res.MBs)
	}
	if res.PricePerMB != 0.30 {
		t.Fatalf("price per mb = %v, want the default above the 10MB step", res.PricePerMB)
	}
	if res.Total != 19*0.30 {
		t.Fatalf("total = %v", res.Total)
	}
	if len(subtotals) != 20 || subtotals[0].Inbound != 1000 {
		t.Fatalf("subtotals = %d, first = %+v", len(subtotals), subtotals[0])
	}
}

func TestAnalyzeSingleSample(t *testing.T) {
	g := &cacti.Graph{Samples: []cacti.Sample{{Values: []float64{0, 5, 10}}}}
	gd, _ := ParseGraphDef("1:d:i:o")
	pd, _ := ParsePricingDef("1.0")

	res, _, err := Analyze(g, gd, pd)
	if err != nil {
		t.Fatal(err)
	}
	if res.Percentile != 1 || res.BPS != 10 {
		t.Fatalf("got %+v", res)
	}
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow(2026, 2)
	if from != time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("from = %v", from)
	}
	if to != time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC) {
		t.Fatalf("to = %v", to)
	}
}

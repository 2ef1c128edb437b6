package databilling

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"transtelco-billing/cacti"
)

// GraphDef describes how one customer's Cacti graph maps onto billing:
// which graph to export and which columns count as inbound or outbound
// traffic. The wire format is `<graph_id>:d(:[iox])+` where d is the date
// column, i/o mark inbound/outbound columns and x columns are ignored.
type GraphDef struct {
	GraphID  int64
	Inbound  []int
	Outbound []int
}

var graphDefRe = regexp.MustCompile(`^\d+:d(:[iox])+$`)

func ParseGraphDef(s string) (*GraphDef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !graphDefRe.MatchString(s) {
		return nil, errors.Errorf("no valid graph_def provided (%q)", s)
	}

	parts := strings.Split(s, ":")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, errors.Errorf("no valid graph_def provided (%q)", s)
	}

	def := &GraphDef{GraphID: id}
	for i, p := range parts[1:] {
		switch p {
		case "i":
			def.Inbound = append(def.Inbound, i)
		case "o":
			def.Outbound = append(def.Outbound, i)
		}
	}
	return def, nil
}

// PriceStep is one tier of a stepped price definition.
type PriceStep struct {
	UpTo  int64
	Price float64
}

// PricingDef is the stepped per-MB price: `<default> (<up_to>:<price>)*`,
// steps sorted ascending; the first step whose cap covers the measured
// volume wins, the default applies above every cap.
type PricingDef struct {
	DefaultPrice float64
	Steps        []PriceStep
}

var pricingDefRe = regexp.MustCompile(`^\d+(\.\d+)?(\s+<\d+:\d+(\.\d+)?)*$`)

func ParsePricingDef(s string) (*PricingDef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !pricingDefRe.MatchString(s) {
		return nil, errors.Errorf("no valid pricing_def provided (%q)", s)
	}

	parts := strings.Fields(s)
	def := &PricingDef{}
	def.DefaultPrice, _ = strconv.ParseFloat(parts[0], 64)

	for _, p := range parts[1:] {
		kv := strings.SplitN(strings.TrimPrefix(p, "<"), ":", 2)
		upTo, _ := strconv.ParseInt(kv[0], 10, 64)
		price, _ := strconv.ParseFloat(kv[1], 64)
		def.Steps = append(def.Steps, PriceStep{UpTo: upTo, Price: price})
	}
	sort.Slice(def.Steps, func(i, j int) bool { return def.Steps[i].UpTo < def.Steps[j].UpTo })
	return def, nil
}

// PriceFor resolves the per-MB price for a measured volume.
func (d *PricingDef) PriceFor(volumeMB float64) float64 {
	for _, step := range d.Steps {
		if volumeMB <= float64(step.UpTo) {
			return step.Price
		}
	}
	return d.DefaultPrice
}

// Subtotal is one sample reduced to its inbound/outbound sums.
type Subtotal struct {
	Time     time.Time
	Inbound  float64
	Outbound float64
}

// Result is one month's 95th-percentile billing outcome.
type Result struct {
	Samples    int
	Percentile int // 1-based rank of the billed sample
	BPS        float64
	MBs        float64
	PricePerMB float64
	Total      float64
}

// Analyze runs the 95th-percentile model: sum each sample's inbound and
// outbound columns, order by outbound, bill the sample at rank
// ceil(n*0.95).
func Analyze(g *cacti.Graph, gd *GraphDef, pd *PricingDef) (*Result, []Subtotal, error) {
	if len(g.Samples) == 0 {
		return nil, nil, errors.New("no samples fetched")
	}

	subtotals := make([]Subtotal, len(g.Samples))
	for i, s := range g.Samples {
		st := Subtotal{Time: s.Time}
		for _, col := range gd.Inbound {
			if col < len(s.Values) {
				st.Inbound += s.Values[col]
			}
		}
		for _, col := range gd.Outbound {
			if col < len(s.Values) {
				st.Outbound += s.Values[col]
			}
		}
		subtotals[i] = st
	}

	ranked := make([]Subtotal, len(subtotals))
	copy(ranked, subtotals)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Outbound < ranked[j].Outbound })

	rank := int(math.Ceil(float64(len(ranked)) * 0.95))
	if rank < 1 {
		rank = 1
	}
	if rank > len(ranked) {
		rank = len(ranked)
	}

	bps := ranked[rank-1].Outbound
	mbs := bps / 1024.0 / 1024.0
	price := pd.PriceFor(mbs)

	return &Result{
		Samples:    len(ranked),
		Percentile: rank,
		BPS:        bps,
		MBs:        mbs,
		PricePerMB: price,
		Total:      mbs * price,
	}, subtotals, nil
}

// MonthWindow returns the polling window of a billing month in UTC.
func MonthWindow(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	return from, to
}

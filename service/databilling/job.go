package databilling

import (
	"github.com/pkg/errors"

	"transtelco-billing/cacti"
	"transtelco-billing/common/log"
)

type Config struct {
	ReportDir string
}

// Job is one enqueued data-billing request.
type Job struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	GraphDef     string `json:"graph_def"`
	PricingDef   string `json:"pricing_def"`
}

// Biller runs 95th-percentile data billing against Cacti.
type Biller struct {
	c     *Config
	cacti *cacti.Client
}

func New(c *Config, client *cacti.Client) *Biller {
	return &Biller{c: c, cacti: client}
}

// Bill prices one customer's month and writes the report. Returns the
// report path.
func (b *Biller) Bill(job Job) (string, error) {
	if job.CustomerID == 0 {
		return "", errors.New("data billing: no customer id")
	}
	if job.Year < 2012 || job.Year > 2099 {
		return "", errors.Errorf("data billing: no valid year provided (%d)", job.Year)
	}
	if job.Month < 1 || job.Month > 12 {
		return "", errors.Errorf("data billing: no valid month provided (%d)", job.Month)
	}

	gd, err := ParseGraphDef(job.GraphDef)
	if err != nil {
		return "", err
	}
	pd, err := ParsePricingDef(job.PricingDef)
	if err != nil {
		return "", err
	}

	from, to := MonthWindow(job.Year, job.Month)
	log.Infof("data billing customer %d (%s) graph %d window %s .. %s",
		job.CustomerID, job.CustomerName, gd.GraphID, from, to)

	graph, err := b.cacti.Export(gd.GraphID, from, to)
	if err != nil {
		return "", err
	}

	res, subtotals, err := Analyze(graph, gd, pd)
	if err != nil {
		return "", err
	}
	log.Infof("data billing customer %d: %d samples, 95th percentile row %d, %.4f MBs at %.4f = %.2f",
		job.CustomerID, res.Samples, res.Percentile, res.MBs, res.PricePerMB, res.Total)

	path, err := WriteReport(b.c.ReportDir, job, graph, res, subtotals)
	if err != nil {
		return "", err
	}
	log.Infof("data billing report: %s", path)
	return path, nil
}

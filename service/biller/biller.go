package biller

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"transtelco-billing/common/log"
	"transtelco-billing/dao"
	"transtelco-billing/library/kafka"
	"transtelco-billing/netsuite"
	"transtelco-billing/rating"
	"transtelco-billing/service/progress"
)

type Config struct {
	InvoiceDir string
	BatchSize  int

	// replay switches: each per-origin stage can be skipped on a re-run,
	// downstream stages then work off whatever annotations are persisted
	SkipIdentification bool
	SkipPricing        bool
	SkipReport         bool
	SkipEmission       bool
}

// CustomerBillJob is one enqueued voice-billing request.
type CustomerBillJob struct {
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
}

// Biller prices one customer's month of CDRs: fetch the billing
// definition, clear the previous run's annotations, then per origin
// identify ownership, price, report and emit.
type Biller struct {
	c       *Config
	dao     *dao.Dao
	ns      *netsuite.Client
	ref     *rating.ReferenceTables
	rated   *kafka.Producer // nil when emission is disabled
	summary *kafka.Producer
}

func New(c *Config, d *dao.Dao, ns *netsuite.Client, ref *rating.ReferenceTables, rated, summary *kafka.Producer) *Biller {
	if c.BatchSize <= 0 {
		c.BatchSize = 10000
	}
	return &Biller{c: c, dao: d, ns: ns, ref: ref, rated: rated, summary: summary}
}

// Bill runs the full pipeline for one customer. Definition or
// normalization failures abort before any CDR mutation; a record no rule
// matches prices as unbillable and is never an error.
func (b *Biller) Bill(job CustomerBillJob, t *progress.Tracker) error {
	if err := validateJob(job); err != nil {
		return err
	}
	table := dao.CDRTableName(job.Year, job.Month)

	info, err := b.ns.CustomerBillingInfo(job.CustomerID)
	if err != nil {
		return errors.Wrapf(err, "billing definition of customer %d", job.CustomerID)
	}
	customer, err := rating.BuildCustomer(info, b.ref)
	if err != nil {
		return err
	}
	t.SetState(progress.StateFetched)
	log.Infof("billing customer %d (%s) %04d/%02d: %d origins",
		customer.ID, customer.Name, job.Year, job.Month, len(customer.Origins))

	if err := b.clear(table, customer.ID); err != nil {
		return err
	}
	t.SetState(progress.StateCleared)

	for _, origin := range customer.Origins {
		t.SetOrigin(origin.Name)

		if !b.c.SkipIdentification {
			t.SetState(progress.StateIdentifying)
			if err := b.identifyOrigin(table, customer, origin); err != nil {
				return err
			}
		}
		if !b.c.SkipPricing {
			t.SetState(progress.StatePricing)
			if err := b.priceOrigin(table, customer, origin, t); err != nil {
				return err
			}
		}
		if !b.c.SkipReport {
			t.SetState(progress.StateReporting)
			path, err := b.writeInvoice(table, customer, origin, job.Year, job.Month)
			if err != nil {
				return err
			}
			log.Infof("invoice for origin %d (%s): %s", origin.ID, origin.Name, path)
		}
		if !b.c.SkipEmission {
			if err := b.emitSummary(table, customer, origin, job); err != nil {
				return err
			}
		}
	}

	t.SetOrigin("")
	t.SetState(progress.StateDone)
	return nil
}

// clear drops only the annotations this run will rewrite. A skipped stage
// keeps its persisted columns, that is what the replay switches reuse.
func (b *Biller) clear(table string, customerID int64) error {
	var (
		cleared int64
		err     error
	)
	switch {
	case !b.c.SkipIdentification && !b.c.SkipPricing:
		cleared, err = b.dao.ClearAnnotations(table, customerID)
	case !b.c.SkipIdentification:
		cleared, err = b.dao.ClearOwnership(table, customerID)
	case !b.c.SkipPricing:
		cleared, err = b.dao.ClearPricing(table, customerID)
	default:
		log.Infof("identification and pricing skipped, keeping all annotations of customer %d", customerID)
		return nil
	}
	if err != nil {
		return err
	}
	log.Infof("cleared %d previously annotated records of customer %d", cleared, customerID)
	return nil
}

func validateJob(job CustomerBillJob) error {
	if job.CustomerID <= 0 {
		return errors.New("invalid customer_id")
	}
	if job.Year < 1900 || job.Year > 2099 {
		return errors.Errorf("invalid year %d", job.Year)
	}
	if job.Month < 1 || job.Month > 12 {
		return errors.Errorf("invalid month %d", job.Month)
	}
	return nil
}

// identifyOrigin tags every record the origin's combined filter claims.
func (b *Biller) identifyOrigin(table string, c *rating.Customer, o *rating.Origin) error {
	var matched []int64
	err := b.dao.IterateAll(table, b.c.BatchSize, func(records []dao.CallRecord) error {
		for i := range records {
			r := &records[i]
			if o.Owns(r.Gateway, r.Host, r.Source, r.Destination) {
				matched = append(matched, r.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Infof("origin %d (%s) claimed %d records", o.ID, o.Name, len(matched))
	return b.dao.TagOwnership(table, matched, c.ID, o.ID)
}

// priceOrigin classifies and prices the origin's records in call_date
// order. Plan volume restarts from zero every run.
func (b *Biller) priceOrigin(table string, c *rating.Customer, o *rating.Origin, t *progress.Tracker) error {
	total, err := b.dao.CountOwned(table, c.ID, o.ID)
	if err != nil {
		return err
	}
	t.SetTotal(total)

	tracker := rating.NewPlanTracker(o.Plans)
	return b.dao.IterateOwned(table, c.ID, o.ID, b.c.BatchSize, func(records []dao.CallRecord) error {
		for i := range records {
			r := &records[i]
			p := o.Price(r.Destination, r.Duration, tracker)
			err := b.dao.WritePricing(table, r.ID,
				string(p.Method), string(p.CallType), string(p.TrunkType), p.Currency, p.Minutes, p.Total)
			if err != nil {
				return err
			}
			b.emitRated(r, c, o, p)
			t.Add(1)
		}
		return nil
	})
}

// emitRated pushes one priced CDR downstream.
func (b *Biller) emitRated(r *dao.CallRecord, c *rating.Customer, o *rating.Origin, p rating.Pricing) {
	if b.rated == nil || b.c.SkipEmission {
		return
	}
	msg, err := json.Marshal(struct {
		*dao.CallRecord
		Customer int64          `json:"customer"`
		Origin   int64          `json:"origin"`
		Pricing  rating.Pricing `json:"pricing"`
	}{r, c.ID, o.ID, p})
	if err != nil {
		log.Error(err)
		return
	}
	b.rated.Log(fmt.Sprintf("%d", r.ID), string(msg))
}

// emitSummary pushes the origin's per-call-type totals downstream.
func (b *Biller) emitSummary(table string, c *rating.Customer, o *rating.Origin, job CustomerBillJob) error {
	if b.summary == nil {
		return nil
	}
	totals, err := b.dao.Totals(table, c.ID, o.ID)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(struct {
		Customer int64               `json:"customer"`
		Origin   int64               `json:"origin"`
		Year     int                 `json:"year"`
		Month    int                 `json:"month"`
		Totals   []dao.CallTypeTotal `json:"totals"`
	}{c.ID, o.ID, job.Year, job.Month, totals})
	if err != nil {
		return err
	}
	b.summary.Log(fmt.Sprintf("%d-%d-%04d%02d", c.ID, o.ID, job.Year, job.Month), string(msg))
	return nil
}

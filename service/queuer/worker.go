package queuer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"transtelco-billing/common/log"
	"transtelco-billing/library/redis"
	"transtelco-billing/service/biller"
	"transtelco-billing/service/databilling"
	"transtelco-billing/service/progress"
)

type WorkerConfig struct {
	PopTimeout int // seconds the blocking pop waits before re-checking for shutdown
}

// Worker drains the billing queue one job at a time. Billing runs mutate
// month tables in place, so a single worker per table is the concurrency
// model.
type Worker struct {
	c     *WorkerConfig
	voice *biller.Biller
	data  *databilling.Biller
	reg   *progress.Registry
}

func NewWorker(c *WorkerConfig, voice *biller.Biller, data *databilling.Biller, reg *progress.Registry) *Worker {
	if c.PopTimeout <= 0 {
		c.PopTimeout = 5
	}
	return &Worker{c: c, voice: voice, data: data, reg: reg}
}

// Run blocks until ctx is cancelled. A failed job is logged and recorded
// in the registry; the worker moves on to the next one.
func (w *Worker) Run(ctx context.Context) {
	log.Infof("billing worker started, queue %q", Queue)
	for {
		select {
		case <-ctx.Done():
			log.Info("billing worker stopped")
			return
		default:
		}

		_, value, ok, err := redis.BLPop(w.c.PopTimeout, queueKey)
		if err != nil {
			log.Errorf("pop %s: %v", queueKey, err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}
		if err := w.dispatch(value); err != nil {
			log.Errorf("job failed: %v", err)
		}
	}
}

func (w *Worker) dispatch(raw string) error {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return errors.Wrap(err, "decode job payload")
	}
	if len(p.Args) == 0 {
		return errors.Errorf("%s job with no args", p.Class)
	}

	switch p.Class {
	case ClassCustomerBill:
		var job biller.CustomerBillJob
		if err := json.Unmarshal(p.Args[0], &job); err != nil {
			return errors.Wrap(err, "decode customer bill job")
		}
		return w.runVoice(job)
	case ClassDataBill:
		var job databilling.Job
		if err := json.Unmarshal(p.Args[0], &job); err != nil {
			return errors.Wrap(err, "decode data bill job")
		}
		return w.runData(job)
	default:
		return errors.Errorf("unknown job class %q", p.Class)
	}
}

func (w *Worker) runVoice(job biller.CustomerBillJob) error {
	t := &progress.Tracker{
		ID:           uuid.NewV4().String(),
		Class:        ClassCustomerBill,
		CustomerID:   job.CustomerID,
		CustomerName: job.CustomerName,
		Year:         job.Year,
		Month:        job.Month,
		StartedAt:    time.Now(),
	}
	t.SetState(progress.StateQueued)
	w.reg.Track(t)

	log.Infof("job %s: billing customer %d (%s) %04d/%02d",
		t.ID, job.CustomerID, job.CustomerName, job.Year, job.Month)
	if err := w.voice.Bill(job, t); err != nil {
		t.Fail(err)
		return errors.Wrapf(err, "job %s", t.ID)
	}
	return nil
}

func (w *Worker) runData(job databilling.Job) error {
	t := &progress.Tracker{
		ID:           uuid.NewV4().String(),
		Class:        ClassDataBill,
		CustomerID:   job.CustomerID,
		CustomerName: job.CustomerName,
		Year:         job.Year,
		Month:        job.Month,
		StartedAt:    time.Now(),
	}
	t.SetState(progress.StateReporting)
	w.reg.Track(t)

	path, err := w.data.Bill(job)
	if err != nil {
		t.Fail(err)
		return errors.Wrapf(err, "job %s", t.ID)
	}
	t.SetState(progress.StateDone)
	log.Infof("job %s: data report %s", t.ID, path)
	return nil
}

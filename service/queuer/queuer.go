package queuer

import (
	"encoding/json"
	"html"

	"github.com/pkg/errors"

	"transtelco-billing/common/log"
	"transtelco-billing/library/redis"
	"transtelco-billing/netsuite"
	"transtelco-billing/service/biller"
	"transtelco-billing/service/databilling"
)

// Both job classes share one queue so a worker drains them in arrival
// order. The key layout stays Resque-compatible: existing dashboards and
// the legacy workers can read it.
const (
	Queue = "customer_billing"

	ClassCustomerBill = "CustomerBillJob"
	ClassDataBill     = "DataBillJob"

	queueKey  = "resque:queue:" + Queue
	queuesSet = "resque:queues"
)

type payload struct {
	Class string            `json:"class"`
	Args  []json.RawMessage `json:"args"`
}

// Enqueue pushes one job onto the shared queue.
func Enqueue(class string, args interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return errors.Wrapf(err, "marshal %s args", class)
	}
	body, err := json.Marshal(payload{Class: class, Args: []json.RawMessage{raw}})
	if err != nil {
		return errors.Wrapf(err, "marshal %s payload", class)
	}
	if err := redis.SAdd(queuesSet, Queue); err != nil {
		return err
	}
	return redis.RPush(queueKey, string(body))
}

// EnqueueVoiceMonth queues a voice billing job for every billable
// telephony customer. An empty customerIDs means all of them.
func EnqueueVoiceMonth(ns *netsuite.Client, year, month int, customerIDs []int64) (int, error) {
	rows, err := ns.BillableVoiceCustomers(customerIDs)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range rows {
		job := biller.CustomerBillJob{
			CustomerID:   row.InternalID(),
			CustomerName: row.Columns["entityid"],
			Year:         year,
			Month:        month,
		}
		if err := Enqueue(ClassCustomerBill, job); err != nil {
			return n, err
		}
		log.Infof("queued %s for customer %d (%s) %04d/%02d",
			ClassCustomerBill, job.CustomerID, job.CustomerName, year, month)
		n++
	}
	return n, nil
}

// EnqueueDataMonth queues a data billing job for every customer with data
// billing enabled. Graph and pricing definitions ride along in the job so
// the worker needs no second lookup.
func EnqueueDataMonth(ns *netsuite.Client, year, month int, customerIDs []int64) (int, error) {
	rows, err := ns.BillableDataCustomers(customerIDs)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range rows {
		job := databilling.Job{
			CustomerID:   row.InternalID(),
			CustomerName: row.Columns["entityid"],
			Year:         year,
			Month:        month,
			GraphDef:     row.Columns["custentity_tdata_cacti_ids"],
			PricingDef:   html.UnescapeString(row.Columns["custentity_tdata_price_per_mb_def"]),
		}
		if err := Enqueue(ClassDataBill, job); err != nil {
			return n, err
		}
		log.Infof("queued %s for customer %d (%s) %04d/%02d",
			ClassDataBill, job.CustomerID, job.CustomerName, year, month)
		n++
	}
	return n, nil
}

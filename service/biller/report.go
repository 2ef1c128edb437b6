package biller

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"transtelco-billing/dao"
	"transtelco-billing/rating"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// writeInvoice renders one origin's month as CSV: a per-call-type totals
// block followed by every priced call. Spreadsheet styling stays with the
// invoicing side.
func (b *Biller) writeInvoice(table string, c *rating.Customer, o *rating.Origin, year, month int) (string, error) {
	totals, err := b.dao.Totals(table, c.ID, o.ID)
	if err != nil {
		return "", err
	}

	runID := strings.ToUpper(strings.ReplaceAll(uuid.NewV4().String(), "-", "_"))
	name := strings.Join([]string{
		"telephony",
		unsafeName.ReplaceAllString(c.Name, "_"),
		fmt.Sprintf("%d", c.ID),
		unsafeName.ReplaceAllString(o.Name, "_"),
		fmt.Sprintf("%d", o.ID),
		fmt.Sprintf("%04d%02d", year, month),
		runID,
	}, "::") + ".csv"

	if err := os.MkdirAll(b.c.InvoiceDir, 0o755); err != nil {
		return "", errors.Wrap(err, "invoice dir")
	}
	path := filepath.Join(b.c.InvoiceDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create invoice")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	head := [][]string{
		{c.Name},
		{o.Name},
		{fmt.Sprintf("Telephony invoice for %04d/%02d", year, month)},
		{fmt.Sprintf("Generated on %s", time.Now().Format("2006-01-02 15:04:05 -07:00"))},
		{},
		{"Call Type", "Calls", "Minutes", "Total", "Currency"},
	}
	for _, row := range head {
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "write invoice")
		}
	}
	for _, t := range totals {
		err := w.Write([]string{
			callTypeLabel(t.CallType),
			fmt.Sprintf("%d", t.Calls),
			fmt.Sprintf("%d", t.Minutes),
			fmt.Sprintf("%.4f", t.Amount),
			t.Currency,
		})
		if err != nil {
			return "", errors.Wrap(err, "write invoice")
		}
	}

	detail := [][]string{
		{},
		{"Date", "Source", "Destination", "Duration", "Minutes", "Call Type", "Method", "Total", "Currency"},
	}
	for _, row := range detail {
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "write invoice")
		}
	}
	err = b.dao.IterateOwned(table, c.ID, o.ID, b.c.BatchSize, func(records []dao.CallRecord) error {
		for i := range records {
			if err := w.Write(detailRow(&records[i])); err != nil {
				return errors.Wrap(err, "write invoice")
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush invoice")
	}
	return path, nil
}

func detailRow(r *dao.CallRecord) []string {
	row := []string{
		r.CallDate.Format("2006-01-02 15:04:05"),
		r.Source,
		r.Destination,
		fmt.Sprintf("%d", r.Duration),
	}
	if r.PricingMethod == nil {
		// identified but not priced on this run
		return append(row, "", "", "", "", "")
	}
	return append(row,
		fmt.Sprintf("%d", deref(r.Minutes)),
		callTypeLabel(derefStr(r.CallType)),
		derefStr(r.PricingMethod),
		fmt.Sprintf("%.4f", derefFloat(r.Total)),
		derefStr(r.Currency),
	)
}

func callTypeLabel(ct string) string {
	if ct == "" {
		return "unbillable"
	}
	return rating.CallType(ct).DisplayName()
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

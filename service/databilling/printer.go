package databilling

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

	"transtelco-billing/cacti"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// WriteReport renders the month's data invoice as CSV: a summary block
// followed by every sample's subtotals. Spreadsheet styling stays with the
// invoicing side.
func WriteReport(dir string, job Job, g *cacti.Graph, res *Result, subtotals []Subtotal) (string, error) {
	runID := strings.ToUpper(strings.ReplaceAll(uuid.NewV4().String(), "-", "_"))
	name := strings.Join([]string{
		"data",
		unsafeName.ReplaceAllString(job.CustomerName, "_"),
		fmt.Sprintf("%d", job.CustomerID),
		fmt.Sprintf("%04d%02d", job.Year, job.Month),
		runID,
	}, "::") + ".csv"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "data billing report dir")
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create data billing report")
	}
	defer f.Close()

	w := csv.NewWriter(f)

	rows := [][]string{
		{job.CustomerName},
		{g.Title},
		{fmt.Sprintf("Data invoice for %04d/%02d", job.Year, job.Month)},
		{fmt.Sprintf("Generated on %s", time.Now().Format("2006-01-02 15:04:05 -07:00"))},
		{},
		{"Samples", fmt.Sprintf("%d", res.Samples)},
		{"95th Percentile Row", fmt.Sprintf("%d", res.Percentile)},
		{"Billed bps", fmt.Sprintf("%.2f", res.BPS)},
		{"Billed MBs", fmt.Sprintf("%.4f", res.MBs)},
		{"Price per MB", fmt.Sprintf("%.4f", res.PricePerMB)},
		{"Total", fmt.Sprintf("%.2f", res.Total)},
		{},
		{"Date", "Inbound", "Outbound"},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "write data billing report")
		}
	}

	for _, st := range subtotals {
		err := w.Write([]string{
			st.Time.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2f", st.Inbound),
			fmt.Sprintf("%.2f", st.Outbound),
		})
		if err != nil {
			return "", errors.Wrap(err, "write data billing report")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush data billing report")
	}
	return path, nil
}

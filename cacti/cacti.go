package cacti

import (
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	URL      string
	Login    string
	Password string
	Timeout  int // seconds
}

// Client pulls polled graph data out of a Cacti instance through its CSV
// export endpoint.
type Client struct {
	c    *Config
	http *http.Client
}

// Column is one exported data column.
type Column struct {
	Index int
	Label string
}

// Sample is one polled row. Values is indexed like the export columns;
// index 0 is the timestamp column and carries no value.
type Sample struct {
	Time   time.Time
	Values []float64
}

// Graph is one exported graph: title, column headers and all samples of
// the requested window.
type Graph struct {
	Title   string
	Columns []Column
	Samples []Sample
}

func New(c *Config) *Client {
	timeout := time.Duration(c.Timeout) * time.Second
	if c.Timeout == 0 {
		timeout = 120 * time.Second
	}
	jar, _ := cookiejar.New(nil)
	return &Client{c: c, http: &http.Client{Timeout: timeout, Jar: jar}}
}

// login posts the Cacti login form; the session cookie lands in the jar.
func (cl *Client) login() error {
	form := url.Values{
		"action":         {"login"},
		"login_username": {cl.c.Login},
		"login_password": {cl.c.Password},
	}
	res, err := cl.http.PostForm(cl.c.URL+"/index.php", form)
	if err != nil {
		return errors.Wrap(err, "cacti: login")
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 && res.StatusCode/100 != 3 {
		return errors.Errorf("cacti: login status %d", res.StatusCode)
	}
	return nil
}

// Export fetches one graph's CSV export for [from, to]. The window start
// backs up one polling interval like the graphs UI does.
func (cl *Client) Export(graphID int64, from, to time.Time) (*Graph, error) {
	if err := cl.login(); err != nil {
		return nil, err
	}

	q := url.Values{
		"graph_start":    {fmt.Sprintf("%d", from.Unix()-300)},
		"graph_end":      {fmt.Sprintf("%d", to.Unix())},
		"local_graph_id": {fmt.Sprintf("%d", graphID)},
		"rra_id":         {"0"},
	}
	res, err := cl.http.Get(cl.c.URL + "/graph_xport.php?" + q.Encode())
	if err != nil {
		return nil, errors.Wrap(err, "cacti: export")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("cacti: export status %d", res.StatusCode)
	}

	r := csv.NewReader(res.Body)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "cacti: parse export")
	}
	return ParseExport(rows)
}

// ParseExport decodes the export layout: a metadata block, a blank
// separator row, the column header row, then the samples.
func ParseExport(rows [][]string) (*Graph, error) {
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, errors.New("cacti: empty export")
	}

	g := &Graph{Title: rows[0][1]}

	sep := -1
	for i, row := range rows {
		if len(row) == 1 && row[0] == "" {
			sep = i
			break
		}
	}
	if sep < 0 || sep+1 >= len(rows) {
		return nil, errors.New("cacti: export has no header separator")
	}

	headers := rows[sep+1]
	for i, label := range headers {
		g.Columns = append(g.Columns, Column{Index: i, Label: label})
	}

	for _, row := range rows[sep+2:] {
		if len(row) != len(headers) {
			continue
		}
		ts, err := parseTimestamp(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "cacti: sample timestamp %q", row[0])
		}
		sample := Sample{Time: ts, Values: make([]float64, len(row))}
		for i := 1; i < len(row); i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			// polling gaps export as NaN, count them as zero traffic
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			sample.Values[i] = v
		}
		g.Samples = append(g.Samples, sample)
	}

	return g, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", s)
}

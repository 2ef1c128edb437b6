package netsuite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	RestletURL string
	Account    string
	Email      string
	Password   string
	Role       string
	Script     int
	Deploy     int
	Timeout    int // seconds
}

// Client talks to the NetSuite RESTlet that serves customer searches and
// the assembled billing definitions.
type Client struct {
	c    *Config
	http *http.Client
}

var nullBody = regexp.MustCompile(`^\s*null\s*$`)

func New(c *Config) *Client {
	timeout := time.Duration(c.Timeout) * time.Second
	if c.Timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{c: c, http: &http.Client{Timeout: timeout}}
}

// call posts params to the RESTlet and decodes the JSON reply into out. A
// literal "null" body is a valid empty result and leaves out untouched.
func (cl *Client) call(params interface{}, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "netsuite: encode request")
	}

	u, err := url.Parse(cl.c.RestletURL)
	if err != nil {
		return errors.Wrap(err, "netsuite: restlet url")
	}
	q := u.Query()
	q.Set("script", fmt.Sprintf("%d", cl.c.Script))
	q.Set("deploy", fmt.Sprintf("%d", cl.c.Deploy))
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "netsuite: build request")
	}
	req.Header.Set("Authorization", fmt.Sprintf(
		"NLAuth nlauth_account=%s, nlauth_email=%s, nlauth_signature=%s, nlauth_role=%s",
		cl.c.Account, cl.c.Email, cl.c.Password, cl.c.Role))
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")

	res, err := cl.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "netsuite: call")
	}
	defer res.Body.Close()

	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "netsuite: read response")
	}
	if res.StatusCode/100 != 2 {
		return errors.Errorf("netsuite: status %d: %s", res.StatusCode, truncate(data, 512))
	}
	if nullBody.Match(data) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "netsuite: decode response")
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// CustomerBillingInfo fetches the assembled billing definition for one
// customer.
func (cl *Client) CustomerBillingInfo(customerID int64) (*BillingInfo, error) {
	params := map[string]interface{}{
		"action":      "billing_info",
		"record_type": "customer",
		"record_id":   customerID,
	}
	info := &BillingInfo{}
	if err := cl.call(params, info); err != nil {
		return nil, err
	}
	if info.Customer.ID == 0 {
		return nil, errors.Errorf("netsuite: no billing info for customer %d", customerID)
	}
	return info, nil
}

// CustomerRow is one row of a customer search.
type CustomerRow struct {
	ID      json.Number       `json:"id"`
	Columns map[string]string `json:"columns"`
}

func (r CustomerRow) InternalID() int64 {
	id, _ := r.ID.Int64()
	return id
}

// SearchCustomers runs a customer search with the given filters, selecting
// the given columns.
func (cl *Client) SearchCustomers(filters []interface{}, columns []string) ([]CustomerRow, error) {
	params := map[string]interface{}{
		"action":      "search",
		"record_type": "customer",
		"filters":     filters,
		"columns":     columns,
	}
	var rows []CustomerRow
	if err := cl.call(params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// BillableVoiceCustomers lists customers flagged for telephony billing, or
// the explicit ids when given.
func (cl *Client) BillableVoiceCustomers(customerIDs []int64) ([]CustomerRow, error) {
	return cl.SearchCustomers(
		customerFilters("custentity_telephony_billable", customerIDs),
		[]string{"internalId", "entityid"})
}

// BillableDataCustomers lists customers flagged for data billing together
// with their graph and pricing definitions.
func (cl *Client) BillableDataCustomers(customerIDs []int64) ([]CustomerRow, error) {
	return cl.SearchCustomers(
		customerFilters("custentity_tdata_enable", customerIDs),
		[]string{"internalId", "entityid", "custentity_tdata_cacti_ids", "custentity_tdata_price_per_mb_def"})
}

func customerFilters(flagField string, customerIDs []int64) []interface{} {
	if len(customerIDs) != 0 {
		return []interface{}{
			[]interface{}{"internalId", "anyOf", customerIDs},
		}
	}
	return []interface{}{
		[]interface{}{flagField, "is", "T"},
	}
}

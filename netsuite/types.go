package netsuite

import (
	"encoding/json"
)

// RecordRef is the NetSuite list-field shape: internal id plus the
// displayed text.
type RecordRef struct {
	InternalID int64  `json:"internal_id"`
	Name       string `json:"name"`
}

// BillingInfo is the nested billing definition the RESTlet assembles for
// one customer. Its format is fixed and versioned by NetSuite, not by this
// system; it is normalized into typed rating structures exactly once per
// run and never carried further.
type BillingInfo struct {
	Customer    CustomerRef              `json:"customer"`
	Origins     map[string]OriginDef     `json:"origins"`
	Rates       map[string]RateDef       `json:"rates"`
	TrunkTypes  map[string]TrunkTypeDef  `json:"trunk_types"`
	GlobalRates map[string]GlobalRateDef `json:"global_rates"`
}

type CustomerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OriginDef struct {
	InternalID      int64                        `json:"internal_id"`
	Name            string                       `json:"name"`
	Rate            RecordRef                    `json:"rate"`
	TrunkType       RecordRef                    `json:"trunk_type"`
	InvoiceGroup    string                       `json:"invoice_group"`
	Provisioned     bool                         `json:"provisioned"`
	CompletedSales  bool                         `json:"completed_sales"`
	RateOverrides   map[string]float64           `json:"rate_overrides"`
	PrefixOverrides map[string]PrefixOverrideDef `json:"prefix_overrides"`
	Plans           map[string]PlanRecord        `json:"plans"`
	Identifiers     map[string]IdentifierDef     `json:"identifiers"`
	InboundRates    map[string]InboundRateDef    `json:"inbound_rates"`
}

type PrefixOverrideDef struct {
	InternalID int64   `json:"internal_id"`
	Prefix     string  `json:"prefix"`
	PerCall    bool    `json:"per_call"`
	Price      float64 `json:"price"`
}

type PlanRecord struct {
	InternalID int64     `json:"internal_id"`
	Volume     float64   `json:"volume"`
	CallType   RecordRef `json:"call_type"`
}

type IdentifierDef struct {
	InternalID       int64  `json:"internal_id"`
	RxlistIPAddr     string `json:"rxlist_ipaddr"`
	EqName           string `json:"eq_name"`
	RxlistSrcNumbers string `json:"rxlist_srcnumbers"`
}

type InboundRateDef struct {
	InternalID  int64   `json:"internal_id"`
	DIDRxList   string  `json:"did_rxlist"`
	MinutePrice float64 `json:"minute_price"`
}

type TrunkTypeDef struct {
	Currency string `json:"currency"`
}

type GlobalRateDef struct {
	Rates []GlobalRateEntry `json:"rates"`
}

type GlobalRateEntry struct {
	Prefix      string  `json:"prefix"`
	MinutePrice float64 `json:"minute_price"`
	Name        string  `json:"name"`
}

// RateDef carries the per-call-type prices of one rate record. The RESTlet
// emits those prices as flat keys next to the record fields, so the known
// fields are pulled out and every remaining numeric field lands in Prices
// keyed by call type.
type RateDef struct {
	InternalID  int64
	Name        string
	Currency    RecordRef
	TrunkType   RecordRef
	LocalPrefix string
	Prices      map[string]float64
}

func (r *RateDef) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	fixed := map[string]interface{}{
		"internal_id":  &r.InternalID,
		"name":         &r.Name,
		"currency":     &r.Currency,
		"trunk_type":   &r.TrunkType,
		"local_prefix": &r.LocalPrefix,
	}
	for key, dst := range fixed {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
			delete(raw, key)
		}
	}

	r.Prices = make(map[string]float64, len(raw))
	for key, v := range raw {
		var price float64
		if err := json.Unmarshal(v, &price); err != nil {
			// non-numeric stray field, not a price
			continue
		}
		r.Prices[key] = price
	}
	return nil
}

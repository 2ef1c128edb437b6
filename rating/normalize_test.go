package rating

import (
	"encoding/json"
	"testing"

	"transtelco-billing/netsuite"
)

const billingInfoDoc = `{
  "customer": {"id": 512, "name": "Acme Maquila"},
  "origins": {
    "2": {
      "internal_id": 202,
      "name": "Juarez Plant",
      "rate": {"internal_id": 31, "name": "MX Standard"},
      "trunk_type": {"internal_id": 5, "name": "Mexicana"},
      "rate_overrides": {},
      "prefix_overrides": {},
      "plans": {},
      "identifiers": {
        "1": {"internal_id": 71, "rxlist_ipaddr": "", "eq_name": "JRZ-GW1", "rxlist_srcnumbers": ""}
      },
      "inbound_rates": {}
    },
    "1": {
      "internal_id": 201,
      "name": "El Paso HQ",
      "rate": {"internal_id": 30, "name": "US Standard"},
      "trunk_type": {"internal_id": 4, "name": "Americana"},
      "rate_overrides": {"us_nationalld": 0.015, "us_mexicold": 0},
      "prefix_overrides": {
        "1": {"internal_id": 61, "prefix": "52656", "per_call": false, "price": 0.04}
      },
      "plans": {
        "b": {"internal_id": 52, "volume": 500, "call_type": {"internal_id": 1, "name": "us_nationalld"}},
        "a": {"internal_id": 51, "volume": 100, "call_type": {"internal_id": 2, "name": "us_local"}}
      },
      "identifiers": {
        "1": {"internal_id": 70, "rxlist_ipaddr": "10\\.20\\.30\\.\\d+,10\\.20\\.31\\.\\d+", "eq_name": "EP-GW1", "rxlist_srcnumbers": ""}
      },
      "inbound_rates": {
        "1": {"internal_id": 80, "did_rxlist": "1915555\\d{4}", "minute_price": 0.05}
      }
    }
  },
  "rates": {
    "0": {"internal_id": 30, "name": "US Standard", "currency": {"internal_id": 1, "name": "USD"},
          "trunk_type": {"internal_id": 4, "name": "Americana"}, "local_prefix": "1915",
          "us_local": 0.02, "us_nationalld": 0.03, "us_mexicold": 0, "label": "stray"},
    "1": {"internal_id": 31, "name": "MX Standard", "currency": {"internal_id": 2, "name": "MXN"},
          "trunk_type": {"internal_id": 5, "name": "Mexicana"},
          "mx_locales": 0.5, "mx_ldnacional": 1.2}
  },
  "trunk_types": {
    "4": {"currency": "USD"}
  },
  "global_rates": {
    "4": {"rates": [{"prefix": "44", "minute_price": 0.25, "name": "United Kingdom"}]}
  }
}`

func refTablesForTest(t *testing.T) *ReferenceTables {
	t.Helper()
	us, err := ParseReferenceTable(TrunkAmericana, map[string]map[string]string{
		"us_local":      {"1915": "El Paso TX"},
		"us_nationalld": {"1212": "New York NY"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mx, err := ParseReferenceTable(TrunkMexicana, map[string]map[string]string{
		"mx_locales": {"52656": "Cd. Juarez CHIH"},
	})
	if err != nil {
		t.Fatal(err)
	}
	us.tables[TrunkMexicana] = mx.tables[TrunkMexicana]
	return us
}

func TestBuildCustomer(t *testing.T) {
	var info netsuite.BillingInfo
	if err := json.Unmarshal([]byte(billingInfoDoc), &info); err != nil {
		t.Fatal(err)
	}

	c, err := BuildCustomer(&info, refTablesForTest(t))
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 512 || c.Name != "Acme Maquila" {
		t.Fatalf("customer = %+v", c)
	}
	if len(c.Origins) != 2 || c.Origins[0].ID != 201 || c.Origins[1].ID != 202 {
		t.Fatalf("origins not sorted by internal id: %+v", c.Origins)
	}

	ep := c.Origins[0]
	if ep.TrunkType != TrunkAmericana {
		t.Fatalf("trunk type = %q", ep.TrunkType)
	}
	if ep.Catalog.RateID != 30 || ep.Catalog.Currency != "USD" {
		t.Fatalf("catalog = %+v", ep.Catalog)
	}
	if got := ep.Catalog.Rates[USLocal]; got != 0.02 {
		t.Fatalf("us_local rate = %v", got)
	}
	if _, ok := ep.Catalog.Rates[USMexicoLD]; ok {
		t.Fatal("zero price means not set, must be dropped")
	}
	if _, ok := ep.RateOverrides[USMexicoLD]; ok {
		t.Fatal("zero override means not set, must be dropped")
	}
	if got := ep.RateOverrides[USNationalLD]; got != 0.015 {
		t.Fatalf("rate override = %v", got)
	}
	if ov, ok := ep.PrefixOverrides["52656"]; !ok || ov.Price != 0.04 {
		t.Fatalf("prefix override = %+v, %v", ov, ok)
	}

	if len(ep.Plans) != 2 || ep.Plans[0].ID != 51 || ep.Plans[1].ID != 52 {
		t.Fatalf("plans not sorted by internal id: %+v", ep.Plans)
	}
	if ep.Plans[0].CallType != USLocal || ep.Plans[0].Volume != 100 {
		t.Fatalf("plan = %+v", ep.Plans[0])
	}
	if ep.Plans[0].Name != "US/Canada Local Calls 100" {
		t.Fatalf("plan name = %q", ep.Plans[0].Name)
	}

	if len(ep.Identifiers) != 1 || len(ep.Identifiers[0].Hosts) != 2 {
		t.Fatalf("identifiers = %+v", ep.Identifiers)
	}
	if !ep.Identifiers[0].Hosts[0].MatchString("10.20.30.44") {
		t.Fatal("host pattern should match 10.20.30.44")
	}
	if ep.Identifiers[0].Hosts[0].MatchString("110.20.30.44") {
		t.Fatal("host pattern must be anchored")
	}

	if len(ep.InboundRates) != 1 || ep.InboundRates[0].Price != 0.05 {
		t.Fatalf("inbound rates = %+v", ep.InboundRates)
	}
	if e, ok := ep.Catalog.International["44"]; !ok || e.Price != 0.25 {
		t.Fatalf("international table = %+v", ep.Catalog.International)
	}

	jrz := c.Origins[1]
	if jrz.TrunkType != TrunkMexicana || jrz.Catalog.Currency != "MXN" {
		t.Fatalf("juarez origin = %+v", jrz.Catalog)
	}
	if len(jrz.Catalog.International) != 0 {
		t.Fatal("no global rates for trunk type 5")
	}
	if len(jrz.Identifiers) != 1 || jrz.Identifiers[0].Gateway != "JRZ-GW1" {
		t.Fatalf("identifiers = %+v", jrz.Identifiers)
	}
}

func TestBuildCustomerRejectsBadInput(t *testing.T) {
	ref := refTablesForTest(t)

	if _, err := BuildCustomer(&netsuite.BillingInfo{}, ref); err == nil {
		t.Fatal("missing customer id should fail")
	}

	var info netsuite.BillingInfo
	if err := json.Unmarshal([]byte(billingInfoDoc), &info); err != nil {
		t.Fatal(err)
	}
	o := info.Origins["1"]
	o.TrunkType.Name = "satellite"
	info.Origins["1"] = o
	if _, err := BuildCustomer(&info, ref); err == nil {
		t.Fatal("unknown trunk type should fail")
	}
}

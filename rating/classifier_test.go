package rating

import (
	"regexp"
	"testing"
)

func testOrigin() *Origin {
	return &Origin{
		ID:        101,
		Name:      "El Paso HQ",
		TrunkType: TrunkAmericana,
		Catalog: &RateCatalog{
			TrunkType: TrunkAmericana,
			Currency:  "USD",
			Rates: map[CallType]float64{
				USLocal:      0.02,
				USNationalLD: 0.03,
				USMexicoLD:   0.08,
			},
			Categories: map[CallType]map[string]string{
				USLocal:      {"1915": "El Paso TX", "1575": "Las Cruces NM"},
				USNationalLD: {"1212": "New York NY", "1713": "Houston TX"},
				USMexicoLD:   {"5255": "Mexico D.F."},
				USTollFree:   {"1800": "US Toll Free"},
			},
			International: map[string]InternationalRate{
				"44": {Name: "United Kingdom", Price: 0.25},
				"1":  {Name: "NANP Fallback", Price: 0.10},
			},
		},
		RateOverrides:   map[CallType]float64{},
		PrefixOverrides: map[string]PrefixOverride{},
	}
}

func TestClassifyCategoryBeatsInternational(t *testing.T) {
	o := testOrigin()

	// "1" sits in the international table, but the category tables are
	// consulted first
	cls, ok := o.Classify("19154002903")
	if !ok {
		t.Fatal("expected classification")
	}
	if cls.CallType != USLocal || cls.Prefix != "1915" || cls.Label != "El Paso TX" {
		t.Fatalf("got %+v", cls)
	}
	if cls.Priced {
		t.Fatal("category classifications are priced by the resolver, not here")
	}
}

func TestClassifyCategoryOrder(t *testing.T) {
	o := testOrigin()

	cls, ok := o.Classify("12125551234")
	if !ok || cls.CallType != USNationalLD {
		t.Fatalf("got (%+v, %v)", cls, ok)
	}
	cls, ok = o.Classify("18005551234")
	if !ok || cls.CallType != USTollFree {
		t.Fatalf("got (%+v, %v)", cls, ok)
	}
}

func TestClassifyInboundWinsOverCategories(t *testing.T) {
	o := testOrigin()
	o.InboundRates = []InboundRate{{
		ID:       7,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`^(?:18005551\d{3})$`)},
		Price:    0.05,
	}}

	cls, ok := o.Classify("18005551234")
	if !ok {
		t.Fatal("expected classification")
	}
	if cls.CallType != Inbound || !cls.Priced || cls.Price != 0.05 {
		t.Fatalf("got %+v", cls)
	}

	// same toll free range but outside the DID list stays a category call
	cls, ok = o.Classify("18005559999")
	if !ok || cls.CallType != USTollFree {
		t.Fatalf("got (%+v, %v)", cls, ok)
	}
}

func TestClassifyInternationalFallback(t *testing.T) {
	o := testOrigin()

	cls, ok := o.Classify("442071234567")
	if !ok {
		t.Fatal("expected classification")
	}
	if cls.CallType != International || cls.Prefix != "44" || !cls.Priced || cls.Price != 0.25 {
		t.Fatalf("got %+v", cls)
	}
}

func TestClassifyNothingApplies(t *testing.T) {
	o := testOrigin()
	o.Catalog.International = nil

	if _, ok := o.Classify("99912345678"); ok {
		t.Fatal("expected no classification")
	}
}

package rating

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"transtelco-billing/netsuite"
)

// BuildCustomer normalizes a raw NetSuite billing definition into typed
// structures: rate records resolved per origin, prefix and plan tables
// reshaped, every data regex compiled once. The raw nested-map shape never
// survives past this function.
//
// NetSuite empty number fields arrive as 0, so a rate or override of 0
// means "not set".
func BuildCustomer(info *netsuite.BillingInfo, ref *ReferenceTables) (*Customer, error) {
	if info.Customer.ID == 0 {
		return nil, errors.New("billing definition has no customer id")
	}

	c := &Customer{
		ID:   info.Customer.ID,
		Name: info.Customer.Name,
	}

	for _, def := range sortedOrigins(info.Origins) {
		origin, err := buildOrigin(def, info, ref)
		if err != nil {
			return nil, errors.Wrapf(err, "customer %d origin %d (%s)", info.Customer.ID, def.InternalID, def.Name)
		}
		c.Origins = append(c.Origins, origin)
	}

	if len(c.Origins) == 0 {
		return nil, errors.Errorf("customer %d has no origins", info.Customer.ID)
	}
	return c, nil
}

func buildOrigin(def netsuite.OriginDef, info *netsuite.BillingInfo, ref *ReferenceTables) (*Origin, error) {
	class := TrunkClass(strings.ToLower(strings.TrimSpace(def.TrunkType.Name)))
	if !class.Valid() {
		return nil, errors.Errorf("unknown trunk type %q", def.TrunkType.Name)
	}

	rate, err := findRate(info.Rates, def.Rate.InternalID)
	if err != nil {
		return nil, err
	}

	catalog := &RateCatalog{
		TrunkType:     class,
		RateID:        rate.InternalID,
		RateName:      rate.Name,
		Currency:      currencyFor(def, rate, info),
		Rates:         make(map[CallType]float64),
		Categories:    ref.Categories(class),
		International: make(map[string]InternationalRate),
	}
	for _, ct := range class.CallTypes() {
		if price := rate.Prices[string(ct)]; price > 0 {
			catalog.Rates[ct] = price
		}
	}
	if gr, ok := info.GlobalRates[fmt.Sprintf("%d", def.TrunkType.InternalID)]; ok {
		for _, entry := range gr.Rates {
			catalog.International[entry.Prefix] = InternationalRate{Name: entry.Name, Price: entry.MinutePrice}
		}
	}

	o := &Origin{
		ID:              def.InternalID,
		Name:            def.Name,
		TrunkType:       class,
		Catalog:         catalog,
		RateOverrides:   make(map[CallType]float64),
		PrefixOverrides: make(map[string]PrefixOverride),
	}

	for name, price := range def.RateOverrides {
		ct := CallType(name)
		if !class.HasCallType(ct) {
			continue
		}
		if price > 0 {
			o.RateOverrides[ct] = price
		}
	}

	for _, ov := range def.PrefixOverrides {
		if len(ov.Prefix) == 0 {
			continue
		}
		o.PrefixOverrides[ov.Prefix] = PrefixOverride{ID: ov.InternalID, Price: ov.Price, PerCall: ov.PerCall}
	}

	for _, rec := range sortedPlans(def.Plans) {
		ct := CallType(rec.CallType.Name)
		if !class.HasCallType(ct) {
			return nil, errors.Errorf("plan %d: call type %q is not valid for trunk class %q", rec.InternalID, rec.CallType.Name, class)
		}
		o.Plans = append(o.Plans, PlanDef{
			ID:       rec.InternalID,
			Name:     fmt.Sprintf("%s %v", ct.DisplayName(), rec.Volume),
			CallType: ct,
			Volume:   int(rec.Volume),
		})
	}

	for _, rec := range sortedIdentifiers(def.Identifiers) {
		ident := Identifier{ID: rec.InternalID, Gateway: strings.TrimSpace(rec.EqName)}
		if ident.Hosts, err = compileRxList(rec.RxlistIPAddr); err != nil {
			return nil, errors.Wrapf(err, "identifier %d hosts", rec.InternalID)
		}
		if ident.Sources, err = compileRxList(rec.RxlistSrcNumbers); err != nil {
			return nil, errors.Wrapf(err, "identifier %d sources", rec.InternalID)
		}
		o.Identifiers = append(o.Identifiers, ident)
	}

	for _, rec := range sortedInboundRates(def.InboundRates) {
		patterns, err := compileRxList(rec.DIDRxList)
		if err != nil {
			return nil, errors.Wrapf(err, "inbound rate %d", rec.InternalID)
		}
		if len(patterns) == 0 {
			continue
		}
		o.InboundRates = append(o.InboundRates, InboundRate{ID: rec.InternalID, Patterns: patterns, Price: rec.MinutePrice})
	}

	return o, nil
}

func findRate(rates map[string]netsuite.RateDef, internalID int64) (netsuite.RateDef, error) {
	// the RESTlet keys the rates map by result index, not internal id
	for _, r := range rates {
		if r.InternalID == internalID {
			return r, nil
		}
	}
	return netsuite.RateDef{}, errors.Errorf("rate record %d not found", internalID)
}

func currencyFor(def netsuite.OriginDef, rate netsuite.RateDef, info *netsuite.BillingInfo) string {
	if tt, ok := info.TrunkTypes[fmt.Sprintf("%d", def.TrunkType.InternalID)]; ok && len(tt.Currency) != 0 {
		return tt.Currency
	}
	return rate.Currency.Name
}

// compileRxList splits a NetSuite regex-list field and compiles each entry
// anchored over the full string.
func compileRxList(list string) ([]*regexp.Regexp, error) {
	var patterns []*regexp.Regexp
	for _, expr := range splitRxList(list) {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", expr)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

func splitRxList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
}

func sortedOrigins(m map[string]netsuite.OriginDef) []netsuite.OriginDef {
	out := make([]netsuite.OriginDef, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}

func sortedPlans(m map[string]netsuite.PlanRecord) []netsuite.PlanRecord {
	out := make([]netsuite.PlanRecord, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}

func sortedIdentifiers(m map[string]netsuite.IdentifierDef) []netsuite.IdentifierDef {
	out := make([]netsuite.IdentifierDef, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}

func sortedInboundRates(m map[string]netsuite.InboundRateDef) []netsuite.InboundRateDef {
	out := make([]netsuite.InboundRateDef, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InternalID < out[j].InternalID })
	return out
}

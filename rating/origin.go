package rating

import "regexp"

// Customer is the fully normalized billing definition for one customer,
// built fresh at the start of a run and discarded afterwards.
type Customer struct {
	ID      int64
	Name    string
	Origins []*Origin // ascending internal id
}

// PlanDef is one volume allowance of free usage for a call type. Volume
// counts calls for per-call types and minutes otherwise.
type PlanDef struct {
	ID       int64
	Name     string
	CallType CallType
	Volume   int
}

// PrefixOverride prices any call whose destination matches the prefix,
// regardless of the regular rate for its category.
type PrefixOverride struct {
	ID      int64
	Price   float64
	PerCall bool
}

// Identifier claims outbound CDRs. Each non-empty criterion must hold
// (hosts and sources match any of their patterns, gateway compares equal);
// an identifier with no criteria at all matches every record. That
// degenerate catch-all is long-standing rate-plan behavior and is kept.
type Identifier struct {
	ID      int64
	Hosts   []*regexp.Regexp
	Gateway string
	Sources []*regexp.Regexp
}

// InboundRate claims and prices inbound calls whose destination matches
// one of the DID patterns.
type InboundRate struct {
	ID       int64
	Patterns []*regexp.Regexp
	Price    float64 // per minute
}

// Origin is one logical trunk/site of a customer, the unit of rate-plan
// assignment.
type Origin struct {
	ID        int64
	Name      string
	TrunkType TrunkClass
	Catalog   *RateCatalog

	RateOverrides   map[CallType]float64 // key present = override set
	PrefixOverrides map[string]PrefixOverride
	Plans           []PlanDef // definition order
	Identifiers     []Identifier
	InboundRates    []InboundRate
}

func (id *Identifier) matches(gateway, host, source string) bool {
	if len(id.Hosts) != 0 && !matchAny(id.Hosts, host) {
		return false
	}
	if len(id.Gateway) != 0 && id.Gateway != gateway {
		return false
	}
	if len(id.Sources) != 0 && !matchAny(id.Sources, source) {
		return false
	}
	return true
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// matchInbound returns the inbound rate whose DID list matches the
// destination, in definition order.
func (o *Origin) matchInbound(destination string) (*InboundRate, bool) {
	for i := range o.InboundRates {
		if matchAny(o.InboundRates[i].Patterns, destination) {
			return &o.InboundRates[i], true
		}
	}
	return nil, false
}

// matchPrefixOverride runs the longest-prefix lookup against the origin's
// override table.
func (o *Origin) matchPrefixOverride(destination string) (string, PrefixOverride, bool) {
	p, ok := longestPrefix(destination, func(p string) bool {
		_, ok := o.PrefixOverrides[p]
		return ok
	})
	if !ok {
		return "", PrefixOverride{}, false
	}
	return p, o.PrefixOverrides[p], true
}

// Owns reports whether the origin's combined filter claims the record:
// the inbound DID union against the destination, or any outbound
// identifier against gateway/host/source.
func (o *Origin) Owns(gateway, host, source, destination string) bool {
	for i := range o.InboundRates {
		if matchAny(o.InboundRates[i].Patterns, destination) {
			return true
		}
	}
	for i := range o.Identifiers {
		if o.Identifiers[i].matches(gateway, host, source) {
			return true
		}
	}
	return false
}

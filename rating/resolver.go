package rating

// Method names the pricing rule that won for a record.
type Method string

const (
	MethodInbound        Method = "inbound"
	MethodPlan           Method = "plan"
	MethodPrefixOverride Method = "prefix_override"
	MethodRateOverride   Method = "rate_override"
	MethodRegularRate    Method = "regular_rate"
	MethodInternational  Method = "international_rate"
	MethodUnbillable     Method = "unbillable"
)

// Pricing is the final decision written back onto the CDR.
type Pricing struct {
	Method    Method     `json:"method"`
	CallType  CallType   `json:"call_type"`
	TrunkType TrunkClass `json:"trunk_type"`
	Currency  string     `json:"currency"`
	Minutes   int        `json:"minutes"`
	Price     float64    `json:"price"`
	PerCall   bool       `json:"per_call"`
	Total     float64    `json:"total"`
	Plan      string     `json:"plan,omitempty"`
	Prefix    string     `json:"prefix,omitempty"`
}

// Minutes rounds a duration in seconds up to whole minutes.
func Minutes(durationSeconds int) int {
	return (durationSeconds + 59) / 60
}

// Price resolves the final price of one call. Priority, first applicable
// wins: inbound rate, plan, prefix override, rate override, regular rate,
// international rate, unbillable. tracker may be nil when the origin has
// no plans.
func (o *Origin) Price(destination string, durationSeconds int, tracker *PlanTracker) Pricing {
	minutes := Minutes(durationSeconds)

	p := Pricing{
		Method:    MethodUnbillable,
		TrunkType: o.TrunkType,
		Currency:  o.Catalog.Currency,
		Minutes:   minutes,
	}

	cls, ok := o.Classify(destination)
	if !ok {
		return p
	}

	p.CallType = cls.CallType
	p.PerCall = cls.CallType.PerCall()
	p.Prefix = cls.Prefix

	switch {
	case cls.CallType == Inbound:
		p.Method = MethodInbound
		p.Price = cls.Price

	case o.consumePlan(&p, cls, tracker):
		// plan claimed the call, price stays zero

	case o.applyPrefixOverride(&p, destination):

	default:
		if price, ok := o.RateOverrides[cls.CallType]; ok {
			p.Method = MethodRateOverride
			p.Price = price
		} else if price, ok := o.Catalog.Rate(cls.CallType); ok {
			p.Method = MethodRegularRate
			p.Price = price
		} else if cls.CallType == International {
			p.Method = MethodInternational
			p.Price = cls.Price
		} else {
			p.Method = MethodUnbillable
			p.Price = 0
		}
	}

	if p.PerCall {
		p.Total = p.Price
	} else {
		p.Total = p.Price * float64(p.Minutes)
	}
	return p
}

func (o *Origin) consumePlan(p *Pricing, cls Classification, tracker *PlanTracker) bool {
	if tracker == nil {
		return false
	}
	plan, ok := tracker.Consume(cls.CallType, p.Minutes)
	if !ok {
		return false
	}
	p.Method = MethodPlan
	p.Price = 0
	p.Plan = plan.Name
	return true
}

func (o *Origin) applyPrefixOverride(p *Pricing, destination string) bool {
	prefix, ov, ok := o.matchPrefixOverride(destination)
	if !ok {
		return false
	}
	p.Method = MethodPrefixOverride
	p.Price = ov.Price
	p.PerCall = ov.PerCall
	p.Prefix = prefix
	return true
}

package rating

// Classification is the call-type decision for one destination. Price is
// only meaningful when Priced is set (inbound and international carry
// their price out of classification; categories are priced later by the
// resolver).
type Classification struct {
	CallType CallType
	Prefix   string
	Label    string
	Price    float64
	Priced   bool
}

// Classify determines the call type for a destination number, in strict
// priority order: inbound DID, category prefix tables in class order,
// international table. The boolean is false when nothing applies; such
// records price as unbillable.
func (o *Origin) Classify(destination string) (Classification, bool) {
	if ir, ok := o.matchInbound(destination); ok {
		return Classification{CallType: Inbound, Price: ir.Price, Priced: true}, true
	}

	for _, ct := range o.TrunkType.CallTypes() {
		table := o.Catalog.Categories[ct]
		if len(table) == 0 {
			continue
		}
		if p, ok := MatchCategoryPrefix(destination, table); ok {
			return Classification{CallType: ct, Prefix: p, Label: table[p]}, true
		}
	}

	if p, entry, ok := o.Catalog.matchInternational(destination); ok {
		return Classification{CallType: International, Prefix: p, Label: entry.Name, Price: entry.Price, Priced: true}, true
	}

	return Classification{}, false
}

package rating

// InternationalRate is one entry of the flat international table.
type InternationalRate struct {
	Name  string
	Price float64 // per minute
}

// RateCatalog is the normalized per-origin rate structure: the flat
// per-call-type rates from the customer's assigned rate record, the shared
// category prefix tables for its trunk class, and the global international
// table for its trunk type.
type RateCatalog struct {
	TrunkType     TrunkClass
	RateID        int64
	RateName      string
	Currency      string
	Rates         map[CallType]float64
	Categories    map[CallType]map[string]string
	International map[string]InternationalRate
}

// Rate returns the regular per-call-type rate, false when the rate record
// carries none for ct.
func (rc *RateCatalog) Rate(ct CallType) (float64, bool) {
	p, ok := rc.Rates[ct]
	return p, ok
}

// matchInternational runs the longest-prefix lookup against the
// international table.
func (rc *RateCatalog) matchInternational(number string) (string, InternationalRate, bool) {
	p, ok := longestPrefix(number, func(p string) bool {
		_, ok := rc.International[p]
		return ok
	})
	if !ok {
		return "", InternationalRate{}, false
	}
	return p, rc.International[p], true
}

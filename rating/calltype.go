package rating

// TrunkClass selects which reference tables and call-type set apply to an
// origin ("americana" trunks rate like US trunks, "mexicana" like Mexican).
type TrunkClass string

const (
	TrunkAmericana TrunkClass = "americana"
	TrunkMexicana  TrunkClass = "mexicana"
)

type CallType string

const (
	USLocal           CallType = "us_local"
	USNationalLD      CallType = "us_nationalld"
	USMexicoLD        CallType = "us_mexicold"
	USMexicoMobileJrz CallType = "us_mexicomobilejrz"
	USMexicoMobile    CallType = "us_mexicomobile"
	USMexicoJuarez    CallType = "us_mexicojuarez"
	USTollFree        CallType = "us_tollfree"
	USMexicoTollFree  CallType = "us_mexicotollfree"

	MXLocales     CallType = "mx_locales"
	MXCelLocal    CallType = "mx_cellocal"
	MXCelNacional CallType = "mx_celnacional"
	MXLDNacional  CallType = "mx_ldnacional"
	MXUSCanada    CallType = "mx_uscanada"
	MXTollFreeMX  CallType = "mx_tollfreemx"
	MXTollFreeUS  CallType = "mx_tollfreeus"

	International CallType = "international"
	Inbound       CallType = "inbound"
)

// classCallTypes fixes the category order the classifier walks for each
// trunk class. International and inbound are not categories and never
// appear here.
var classCallTypes = map[TrunkClass][]CallType{
	TrunkAmericana: {
		USLocal,
		USNationalLD,
		USMexicoLD,
		USMexicoMobileJrz,
		USMexicoMobile,
		USMexicoJuarez,
		USTollFree,
		USMexicoTollFree,
	},
	TrunkMexicana: {
		MXLocales,
		MXCelLocal,
		MXCelNacional,
		MXLDNacional,
		MXUSCanada,
		MXTollFreeMX,
		MXTollFreeUS,
	},
}

var callTypeNames = map[CallType]string{
	USLocal:           "US/Canada Local Calls",
	USNationalLD:      "US/Canada Domestic Long Distance",
	USMexicoLD:        "US/Canada to Mexico",
	USMexicoMobileJrz: "US/Canada to Juarez Mobile",
	USMexicoMobile:    "US/Canada to Mexico Mobile",
	USMexicoJuarez:    "US/Canada to Juarez Land Line",
	USTollFree:        "US/Canada Toll Free Calls",
	USMexicoTollFree:  "US/Canada to Mexico Toll Free Numbers",
	MXLocales:         "Mexico Local Calls",
	MXCelLocal:        "Mexico Juarez Mobile",
	MXCelNacional:     "Mexico National Mobile",
	MXLDNacional:      "Mexico Domestic Long Distance",
	MXUSCanada:        "Mexico to USA/Canada",
	MXTollFreeMX:      "Mexico Toll Free Calls",
	MXTollFreeUS:      "Mexico to USA/Canada Toll Free Numbers",
	International:     "International",
	Inbound:           "Inbound",
}

func (tc TrunkClass) Valid() bool {
	_, ok := classCallTypes[tc]
	return ok
}

// CallTypes returns the class categories in classification order.
func (tc TrunkClass) CallTypes() []CallType {
	return classCallTypes[tc]
}

// HasCallType reports whether ct is a category of the class.
func (tc TrunkClass) HasCallType(ct CallType) bool {
	for _, t := range classCallTypes[tc] {
		if t == ct {
			return true
		}
	}
	return false
}

// PerCall reports whether the call type bills one unit per call instead of
// per rounded-up minute. Only the two local types do.
func (ct CallType) PerCall() bool {
	return ct == USLocal || ct == MXLocales
}

// DisplayName returns the reporting name for the call type, or the raw
// value when unregistered.
func (ct CallType) DisplayName() string {
	if n, ok := callTypeNames[ct]; ok {
		return n
	}
	return string(ct)
}

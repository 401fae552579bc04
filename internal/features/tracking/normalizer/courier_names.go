package normalizer

import (
	"regexp"
	"strings"

	"parcel-tracker/internal/features/tracking/domain"
)

const parcelOneName = "PARCEL.ONE"

// parcelOneNumberRe matches PARCEL.ONE numbers, which providers often attribute to the last-mile carrier.
var parcelOneNumberRe = regexp.MustCompile(`^(40|10|11)\d{11}$`)

var defaultCourierNames = map[string]string{
	"yanwen":       "Yanwen",
	"ups":          "UPS",
	"dhl":          "DHL",
	"austria-post": "Austrian Post",
	"parcelone":    parcelOneName,
	"usps":         "USPS",
	"fedex":        "FedEx",
	"dpd":          "DPD",
	"gls":          "GLS",
	"china-post":   "China Post",
	"4px":          "4PX",
	"cainiao":      "Cainiao",
}

// CourierNameResolver turns provider courier codes into display names.
type CourierNameResolver struct {
	names map[string]string
}

// NewCourierNameResolver returns a resolver over the built-in table extended by extra.
// Entries in extra win over the built-in ones.
func NewCourierNameResolver(extra map[string]string) *CourierNameResolver {
	names := make(map[string]string, len(defaultCourierNames)+len(extra))
	for code, name := range defaultCourierNames {
		names[code] = name
	}
	for code, name := range extra {
		names[strings.ToLower(strings.TrimSpace(code))] = name
	}
	return &CourierNameResolver{names: names}
}

// Resolve returns the display name for rawCode.
// rawCode may be a comma separated list, each code is mapped on its own and
// unknown codes are kept verbatim. A PARCEL.ONE tracking number always resolves
// to PARCEL.ONE whatever the provider reported.
func (r *CourierNameResolver) Resolve(rawCode, trackingNumber string) string {
	if parcelOneNumberRe.MatchString(strings.TrimSpace(trackingNumber)) {
		return parcelOneName
	}

	raw := strings.TrimSpace(rawCode)
	if raw == "" || raw == domain.NotAvailable {
		return domain.NotAvailable
	}

	var names []string
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if name, ok := r.names[strings.ToLower(code)]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, code)
	}
	if len(names) == 0 {
		return domain.NotAvailable
	}
	return strings.Join(names, ", ")
}

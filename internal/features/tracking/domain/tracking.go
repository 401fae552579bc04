package domain

// Sentinel values used when a provider payload lacks a field.
const (
	// NotAvailable is used for a missing tracking number or courier.
	NotAvailable = "N/A"
	// DefaultEventStatus is used for an event without any status text.
	DefaultEventStatus = "Status update"
	// DefaultEventLocation is used for an event without any location.
	DefaultEventLocation = "Location not specified"
)

// TrackingRequest is a caller's lookup for one tracking number.
type TrackingRequest struct {
	// TrackingNumber is the opaque number printed on the parcel label.
	TrackingNumber string
	// Carrier is an optional carrier code supplied by the caller.
	Carrier string
}

// CandidateSource says why a carrier was guessed.
type CandidateSource string

const (
	// SourceExplicit is a carrier supplied by the caller.
	SourceExplicit CandidateSource = "explicit"
	// SourceHeuristic is a carrier inferred from the tracking number pattern.
	SourceHeuristic CandidateSource = "heuristic"
	// SourceDetected is a carrier suggested by a provider's detection call.
	SourceDetected CandidateSource = "detected"
	// SourceDefaultFallback is the configured carrier of last resort.
	SourceDefaultFallback CandidateSource = "default-fallback"
)

// CarrierCandidate is one carrier guess for a tracking number.
type CarrierCandidate struct {
	// Code is the provider-facing carrier code (e.g. "yanwen", "ups").
	Code string `json:"code"`
	// Source records how the guess was made.
	Source CandidateSource `json:"source"`
	// Priority is the position in the resolved list, lower is tried first.
	Priority int `json:"priority"`
}

// ProviderResponse is the successful result of a provider fetch.
// Payload holds the single tracking record extracted from the provider envelope
// and is only interpreted by the normalizer.
type ProviderResponse struct {
	Provider       string
	Carrier        string
	TrackingNumber string
	Payload        []byte
}

// TrackingEvent is one scan or status change of a shipment.
type TrackingEvent struct {
	// Timestamp is passed through as the provider formatted it and may be empty.
	Timestamp string `json:"timestamp"`
	// Status is the human readable event description.
	Status string `json:"status"`
	// Location is where the event happened.
	Location string `json:"location"`
}

// TrackingRecord is the canonical, provider independent tracking result.
type TrackingRecord struct {
	// TrackingNumber as reported by the provider.
	TrackingNumber string `json:"trackingNumber"`
	// Courier is the display name of the carrier (or carriers).
	Courier string `json:"courier"`
	// Events in the order the provider returned them.
	Events []TrackingEvent `json:"events"`
}

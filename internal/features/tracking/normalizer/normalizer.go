package normalizer

import (
	"strings"

	"parcel-tracker/internal/features/tracking/domain"

	"github.com/tidwall/gjson"
)

// Field paths tried in order; the first non-empty value wins.
// Both the Ship24 and AfterShip record shapes are covered without knowing which provider answered.
var (
	trackingNumberPaths = []string{"tracker.trackingNumber", "tracking_number", "shipment.trackingNumbers.0.tn"}
	courierCodePaths    = []string{"tracker.courierCode", "shipment.courierCode", "slug"}
	eventListPaths      = []string{"events", "checkpoints"}

	eventCourierPaths   = []string{"courierCode", "slug"}
	eventTimestampPaths = []string{"occurrenceDatetime", "checkpoint_time", "datetime", "created_at"}
	eventStatusPaths    = []string{"status", "message", "statusMilestone", "tag"}
	locationPartPaths   = []string{"city", "state", "country"}
	eventPlacePaths     = []string{"city", "state", "country_name"}
)

// ResponseNormalizer reduces a provider record to the canonical TrackingRecord.
type ResponseNormalizer struct {
	names *CourierNameResolver
}

// NewResponseNormalizer creates a normalizer that names couriers with names.
func NewResponseNormalizer(names *CourierNameResolver) *ResponseNormalizer {
	if names == nil {
		names = NewCourierNameResolver(nil)
	}
	return &ResponseNormalizer{names: names}
}

// Normalize never fails: missing or unreadable fields fall back to sentinels.
func (n *ResponseNormalizer) Normalize(resp domain.ProviderResponse) domain.TrackingRecord {
	root := gjson.ParseBytes(resp.Payload)

	events := eventList(root)

	trackingNumber := firstText(root, trackingNumberPaths...)
	if trackingNumber == "" {
		trackingNumber = domain.NotAvailable
	}

	rawCourier := strings.Join(codes(root, courierCodePaths...), ", ")
	if rawCourier == "" && len(events) > 0 {
		rawCourier = strings.Join(codes(events[0], eventCourierPaths...), ", ")
	}
	if rawCourier == "" {
		rawCourier = domain.NotAvailable
	}

	nameLookupNumber := trackingNumber
	if nameLookupNumber == domain.NotAvailable {
		nameLookupNumber = resp.TrackingNumber
	}

	record := domain.TrackingRecord{
		TrackingNumber: trackingNumber,
		Courier:        n.names.Resolve(rawCourier, nameLookupNumber),
		Events:         make([]domain.TrackingEvent, 0, len(events)),
	}
	for _, ev := range events {
		record.Events = append(record.Events, normalizeEvent(ev))
	}
	return record
}

func normalizeEvent(ev gjson.Result) domain.TrackingEvent {
	status := firstText(ev, eventStatusPaths...)
	if status == "" {
		status = domain.DefaultEventStatus
	}
	return domain.TrackingEvent{
		Timestamp: firstText(ev, eventTimestampPaths...),
		Status:    status,
		Location:  location(ev),
	}
}

func location(ev gjson.Result) string {
	loc := ev.Get("location")
	switch {
	case loc.IsObject():
		if s := firstText(loc, locationPartPaths...); s != "" {
			return s
		}
	default:
		if s := text(loc); s != "" {
			return s
		}
	}
	if s := firstText(ev, eventPlacePaths...); s != "" {
		return s
	}
	return domain.DefaultEventLocation
}

func eventList(root gjson.Result) []gjson.Result {
	for _, path := range eventListPaths {
		if r := root.Get(path); r.IsArray() {
			return r.Array()
		}
	}
	return nil
}

// codes reads the first path holding a courier code, as a string or a list of strings.
func codes(r gjson.Result, paths ...string) []string {
	for _, path := range paths {
		v := r.Get(path)
		var out []string
		if v.IsArray() {
			for _, item := range v.Array() {
				if s := text(item); s != "" {
					out = append(out, s)
				}
			}
		} else if s := text(v); s != "" {
			out = append(out, s)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func firstText(r gjson.Result, paths ...string) string {
	for _, path := range paths {
		if s := text(r.Get(path)); s != "" {
			return s
		}
	}
	return ""
}

// text returns scalar values only; objects, arrays and null read as empty.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(r.String())
	default:
		return ""
	}
}

// Package trace unifies the two producer event-trace formats into one ordered
// sequence of typed events. The web SDK tags events with device/category
// style fields; the mobile SDK uses name/type style fields. Both land in the
// same Event shape so the classifier and the audit display never care which
// SDK produced the submission.
package trace

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the outcome of one trace event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPending Status = "pending"
)

// Producer variants. VariantUnknown means the payload carried no tag and
// sniffing found no distinguishing field.
const (
	VariantWebSDK  = "webSdk"
	VariantMobile  = "mobileSdk"
	VariantUnknown = "unknown"
)

// Event is one normalized trace step. Raw preserves every producer field for
// audit replay; nothing is lost in normalization.
type Event struct {
	Name       string         `json:"name"`
	Category   string         `json:"category,omitempty"`
	Status     Status         `json:"status"`
	DurationMs int64          `json:"duration_ms"`
	Timestamp  time.Time      `json:"timestamp"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Normalize converts a raw heterogeneous trace into ordered events.
//
// Semantics, independent of producer variant:
//   - name: first present of {event, name, id}
//   - category: first present of {category, type, page}
//   - status: defaults to success when absent
//   - duration: explicit value when present, otherwise the delta to the
//     previous event's timestamp, clamped at zero
//   - ordering: by timestamp, stable for equal timestamps
//
// The result is an empty non-nil slice for nil or empty input: callers treat
// "no trace" and "empty trace" identically.
func Normalize(raw []json.RawMessage) []Event {
	events := make([]Event, 0, len(raw))

	for _, msg := range raw {
		var fields map[string]any
		if err := json.Unmarshal(msg, &fields); err != nil || len(fields) == 0 {
			// Unparseable entries are dropped rather than aborting the
			// whole trace; the payload itself already passed decoding.
			continue
		}
		events = append(events, fromFields(fields))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	// Second pass: derive missing durations from timestamp deltas. This has
	// to happen after sorting so the delta is against the true predecessor.
	for i := range events {
		if events[i].DurationMs >= 0 {
			continue
		}
		if i == 0 {
			events[i].DurationMs = 0
			continue
		}
		delta := events[i].Timestamp.Sub(events[i-1].Timestamp).Milliseconds()
		if delta < 0 {
			delta = 0
		}
		events[i].DurationMs = delta
	}

	return events
}

// DetectVariant resolves the producer variant. The explicit tag wins; field
// sniffing is the fallback for payloads from SDK builds predating the tag.
func DetectVariant(tagged string, raw []json.RawMessage) string {
	switch tagged {
	case VariantWebSDK, VariantMobile:
		return tagged
	}

	for _, msg := range raw {
		var fields map[string]any
		if err := json.Unmarshal(msg, &fields); err != nil {
			continue
		}
		if _, ok := fields["device"]; ok {
			return VariantWebSDK
		}
		if _, ok := fields["category"]; ok {
			return VariantWebSDK
		}
		if _, ok := fields["name"]; ok {
			return VariantMobile
		}
		if _, ok := fields["type"]; ok {
			return VariantMobile
		}
	}
	return VariantUnknown
}

// fromFields builds an Event with DurationMs = -1 marking "derive later".
func fromFields(fields map[string]any) Event {
	e := Event{
		Name:       firstString(fields, "event", "name", "id"),
		Category:   firstString(fields, "category", "type", "page"),
		Status:     StatusSuccess,
		DurationMs: -1,
		Raw:        fields,
	}

	if s := firstString(fields, "status"); s != "" {
		switch Status(s) {
		case StatusSuccess, StatusFailure, StatusPending:
			e.Status = Status(s)
		}
	}

	// duration_ms is our own serialized form; accepting it keeps Normalize
	// idempotent when fed an already-normalized trace.
	for _, key := range []string{"duration", "duration_ms"} {
		if d, ok := numberField(fields, key); ok && d >= 0 {
			e.DurationMs = int64(d)
			break
		}
	}

	if ts, ok := timestampField(fields, "timestamp"); ok {
		e.Timestamp = ts
	}

	return e
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func numberField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// timestampField accepts epoch milliseconds or RFC 3339 strings; the two SDKs
// disagree on which to send.
func timestampField(fields map[string]any, key string) (time.Time, bool) {
	switch v := fields[key].(type) {
	case float64:
		return time.UnixMilli(int64(v)).UTC(), true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// TotalDuration sums event durations, the figure shown on the session
// timeline in the back office.
func TotalDuration(events []Event) time.Duration {
	var total int64
	for _, e := range events {
		total += e.DurationMs
	}
	return time.Duration(total) * time.Millisecond
}

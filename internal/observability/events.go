package observability

import "time"

// EventEnvelope is the schema for operational events pushed to the broker:
// websocket lifecycle, write errors and similar plumbing signals. Audit
// records use their own envelope in the telemetry package.
type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	Service       string `json:"service"`
	EventType     string `json:"event_type"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	Payload       any    `json:"payload"`
}

// NewEventEnvelope stamps the envelope boilerplate around a payload.
func NewEventEnvelope(eventType, eventName string, payload any) EventEnvelope {
	return EventEnvelope{
		SchemaVersion: 1,
		Service:       "mentei-messaging",
		EventType:     eventType,
		EventName:     eventName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Payload:       payload,
	}
}

// BuildHeaders carries correlation ids onto the broker message so consumers
// can stitch events back to the originating request and trace.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

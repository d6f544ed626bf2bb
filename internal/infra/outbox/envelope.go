package outbox

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	appoutbox "airbrb/internal/app/outbox"
)

// Envelope turns stored records into CloudEvents messages and picks their topic.
type Envelope struct {
	TopicPrefix string
	Source      string
}

// Topic maps "booking.requested" to "<prefix>booking.events.v1".
func (e Envelope) Topic(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return e.TopicPrefix + base + ".events.v1"
}

func (e Envelope) Format(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &data); err != nil {
			return nil, nil, err
		}
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              id,
		"type":            rec.Name + ".v1",
		"source":          e.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range rec.Headers {
		if k == "content-type" {
			continue
		}
		headers[k] = v
	}
	return payload, headers, nil
}

func (e Envelope) source() string {
	if e.Source != "" {
		return e.Source
	}
	return "app://airbrb"
}

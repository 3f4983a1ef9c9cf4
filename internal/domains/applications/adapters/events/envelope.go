package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
)

// Envelope is the wire shape of a published domain event.
type Envelope struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Encode renders e as a JSON envelope.
func Encode(e domain.Event) ([]byte, error) {
	env := Envelope{
		Type:      e.EventName(),
		Timestamp: e.OccurredAt().UTC(),
		Data:      payload(e),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return raw, nil
}

// partitionKey keeps every event of one application on the same partition.
func partitionKey(e domain.Event) string {
	if id, ok := payload(e)["application_id"].(int64); ok {
		return strconv.FormatInt(id, 10)
	}
	return e.EventName()
}

func payload(e domain.Event) map[string]any {
	switch ev := e.(type) {
	case domain.ApplicationCreated:
		return map[string]any{"application_id": ev.ApplicationID, "application_number": ev.Number.String(), "owner_id": ev.OwnerID}
	case domain.ApplicationSubmitted:
		return map[string]any{"application_id": ev.ApplicationID, "owner_id": ev.OwnerID}
	case domain.ApplicationStatusChanged:
		return map[string]any{"application_id": ev.ApplicationID, "from": string(ev.From), "to": string(ev.To), "actor_id": ev.ActorID}
	case domain.ReviewCompleted:
		return map[string]any{"application_id": ev.ApplicationID, "reviewer_id": ev.ReviewerID}
	case domain.ApplicationDeleted:
		return map[string]any{"application_id": ev.ApplicationID, "application_number": ev.Number.String(), "actor_id": ev.ActorID}
	default:
		return map[string]any{}
	}
}

package kafkax

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"equiploan/internal/domain"
)

type publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// ActivityPublisher is an activity sink that hands entries to the activity topic; the
// activityd consumer persists them.
type ActivityPublisher struct {
	P       publisher
	Service string
}

func (a *ActivityPublisher) Insert(_ context.Context, e domain.StaffActivity) error {
	env, err := NewEnvelope(e.ID, EventStaffActivity, a.Service, e)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	// keyed by target so every entry about one request lands on one partition
	return a.P.Publish([]byte(e.TargetType+":"+e.TargetID), b)
}

// Notifier publishes loan decisions for the delivery workers (mail, chat) to pick up.
type Notifier struct {
	P       publisher
	Service string
}

func (n *Notifier) Notify(_ context.Context, msg domain.Notification) error {
	env, err := NewEnvelope(uuid.NewString(), EventLoanDecision, n.Service, msg)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return n.P.Publish([]byte(msg.UserID), b)
}

// DecodeActivity extracts a staff activity entry from a consumed message.
func DecodeActivity(m kafka.Message) (domain.StaffActivity, error) {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return domain.StaffActivity{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != EventStaffActivity {
		return domain.StaffActivity{}, fmt.Errorf("unexpected event type %q", env.EventType)
	}
	e, err := UnwrapPayload[domain.StaffActivity](env.Payload)
	if err != nil {
		return e, err
	}
	if e.ID == "" {
		e.ID = env.EventID
	}
	return e, nil
}

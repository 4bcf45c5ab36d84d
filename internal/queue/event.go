// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/event-seat-allocation/internal/model"

// AssignmentChangedEvent is published after every committed occupancy
// change: initial assignment, relocation, swap half, forced eviction or
// cancellation.  It mirrors one relocation log entry so downstream
// consumers (notification senders, reporting exports) can react without
// querying the primary database.
type AssignmentChangedEvent struct {
	EventID          uint64          `json:"event_id"`
	BookingID        uint64          `json:"booking_id"`
	BookingCode      string          `json:"booking_code"`
	Action           string          `json:"action"`
	Old              *model.Location `json:"old,omitempty"`
	New              *model.Location `json:"new,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	ActorID          uint64          `json:"actor_id"`
	RelatedBookingID *uint64         `json:"related_booking_id,omitempty"`
	OccurredAt       string          `json:"occurred_at"`
}

// FromLogEntry builds the broker payload for one relocation log entry.
func FromLogEntry(e *model.RelocationLogEntry) AssignmentChangedEvent {
	return AssignmentChangedEvent{
		EventID:          e.EventID,
		BookingID:        e.BookingID,
		BookingCode:      e.BookingCode,
		Action:           e.Action,
		Old:              e.Old,
		New:              e.New,
		Reason:           e.Reason,
		ActorID:          e.ActorID,
		RelatedBookingID: e.RelatedBookingID,
		OccurredAt:       e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

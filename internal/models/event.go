package models

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID  `json:"id"`
	CreatorID   uuid.UUID  `json:"creator_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	CreatedAt   time.Time  `json:"created_at"`
}

type EventSummary struct {
	Event
	Creator        UserRef `json:"creator"`
	AttendeesCount int     `json:"attendees_count"`
}

type EventAttendee struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AttendeeWithUser struct {
	EventAttendee
	User UserRef `json:"user"`
}

// EventAttendeeRequest follows the same pending/terminal lifecycle as
// FriendshipRequest, scoped to one event.
type EventAttendeeRequest struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	Comment    string     `json:"comment"`
	AcceptedAt *time.Time `json:"accepted_at"`
	RejectedAt *time.Time `json:"rejected_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (r *EventAttendeeRequest) IsPending() bool {
	return r.AcceptedAt == nil && r.RejectedAt == nil
}

type JoinRequestDetail struct {
	EventAttendeeRequest
	Sender UserRef `json:"sender"`
}

type CreateEventParams struct {
	Title       string
	Description string
	StartedAt   *time.Time
	EndedAt     *time.Time
	Location    string
	Latitude    *float64
	Longitude   *float64
}

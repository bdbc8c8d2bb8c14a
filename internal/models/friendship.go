package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is one directional edge. A mutual friendship is always a
// pair of edges (A→B and B→A) created in the same transaction.
type Friendship struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FriendID  uuid.UUID `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendshipRequest is pending while both timestamps are null. Setting
// either one makes it terminal; it is never reopened.
type FriendshipRequest struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Comment    string     `json:"comment"`
	AcceptedAt *time.Time `json:"accepted_at"`
	RejectedAt *time.Time `json:"rejected_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (r *FriendshipRequest) IsPending() bool {
	return r.AcceptedAt == nil && r.RejectedAt == nil
}

type FriendshipRequestDetail struct {
	FriendshipRequest
	Sender   UserRef `json:"sender"`
	Receiver UserRef `json:"receiver"`
}

type FriendWithUser struct {
	Friendship
	Friend UserRef `json:"friend"`
}

// RelationshipStatus describes the viewer's relationship to a profile
// subject.
type RelationshipStatus string

const (
	RelationshipNone            RelationshipStatus = "none"
	RelationshipPendingIncoming RelationshipStatus = "pending_incoming"
	RelationshipPendingOutgoing RelationshipStatus = "pending_outgoing"
	RelationshipFriends         RelationshipStatus = "friends"
)

// Relationship aggregates everything the profile view needs about the
// viewer/subject pair.
type Relationship struct {
	Status      RelationshipStatus `json:"status"`
	Friendship  *Friendship        `json:"friendship"`
	RequestFrom *FriendshipRequest `json:"friendship_request_from"`
	RequestTo   *FriendshipRequest `json:"friendship_request_to"`
}

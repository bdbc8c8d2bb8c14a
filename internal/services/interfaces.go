package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/plansapp/plans/internal/models"
)

// Service interfaces consumed by the HTTP handlers. Handlers depend on
// these so tests can swap in mocks.

type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	CreateExternal(ctx context.Context, params models.CreateExternalUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

type FriendshipServiceInterface interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, comment string) (*models.FriendshipRequest, error)
	CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	AcceptRequest(ctx context.Context, accepterID, requesterID uuid.UUID) (*models.FriendshipRequest, error)
	RejectRequest(ctx context.Context, rejecterID, requesterID uuid.UUID) (*models.FriendshipRequest, error)
	Remove(ctx context.Context, userID, otherID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendshipRequestDetail, error)
	AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	FriendsCount(ctx context.Context, userID uuid.UUID) (int, error)
	RelationshipTo(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.Relationship, error)
}

type EventServiceInterface interface {
	Create(ctx context.Context, creatorID uuid.UUID, params models.CreateEventParams) (*models.Event, error)
	GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.EventSummary, error)
	ListAttending(ctx context.Context, userID uuid.UUID) ([]models.EventSummary, error)
	Delete(ctx context.Context, actorID, eventID uuid.UUID) error
	RequestToJoin(ctx context.Context, eventID, senderID uuid.UUID, comment string) (*models.EventAttendeeRequest, error)
	ActOnRequest(ctx context.Context, actorID, eventID, requestID uuid.UUID, action JoinRequestAction) (*models.EventAttendeeRequest, error)
	PendingRequests(ctx context.Context, actorID, eventID uuid.UUID) ([]models.JoinRequestDetail, error)
	Attendees(ctx context.Context, eventID uuid.UUID) ([]models.AttendeeWithUser, error)
	AttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error)
}

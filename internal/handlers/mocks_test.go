package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/plansapp/plans/internal/models"
	"github.com/plansapp/plans/internal/services"
)

type mockUserService struct {
	CreateFunc          func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	CreateExternalFunc  func(ctx context.Context, params models.CreateExternalUserParams) (*models.User, error)
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	GetByTelegramIDFunc func(ctx context.Context, telegramID int64) (*models.User, error)
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) CreateExternal(ctx context.Context, params models.CreateExternalUserParams) (*models.User, error) {
	if m.CreateExternalFunc != nil {
		return m.CreateExternalFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	if m.GetByTelegramIDFunc != nil {
		return m.GetByTelegramIDFunc(ctx, telegramID)
	}
	return nil, nil
}

type mockAuthService struct {
	HashPasswordFunc          func(password string) (string, error)
	VerifyPasswordFunc        func(hash, password string) bool
	CreateSessionFunc         func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc       func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc         func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session_token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, services.ErrSessionNotFound
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

type mockFriendshipService struct {
	SendRequestFunc         func(ctx context.Context, senderID, receiverID uuid.UUID, comment string) (*models.FriendshipRequest, error)
	CancelRequestFunc       func(ctx context.Context, senderID, receiverID uuid.UUID) error
	AcceptRequestFunc       func(ctx context.Context, accepterID, requesterID uuid.UUID) (*models.FriendshipRequest, error)
	RejectRequestFunc       func(ctx context.Context, rejecterID, requesterID uuid.UUID) (*models.FriendshipRequest, error)
	RemoveFunc              func(ctx context.Context, userID, otherID uuid.UUID) error
	ListFriendsFunc         func(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error)
	ListPendingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.FriendshipRequestDetail, error)
	AreFriendsFunc          func(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	FriendsCountFunc        func(ctx context.Context, userID uuid.UUID) (int, error)
	RelationshipToFunc      func(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.Relationship, error)
}

func (m *mockFriendshipService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, comment string) (*models.FriendshipRequest, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, senderID, receiverID, comment)
	}
	return &models.FriendshipRequest{}, nil
}

func (m *mockFriendshipService) CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, senderID, receiverID)
	}
	return nil
}

func (m *mockFriendshipService) AcceptRequest(ctx context.Context, accepterID, requesterID uuid.UUID) (*models.FriendshipRequest, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, accepterID, requesterID)
	}
	return &models.FriendshipRequest{}, nil
}

func (m *mockFriendshipService) RejectRequest(ctx context.Context, rejecterID, requesterID uuid.UUID) (*models.FriendshipRequest, error) {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, rejecterID, requesterID)
	}
	return &models.FriendshipRequest{}, nil
}

func (m *mockFriendshipService) Remove(ctx context.Context, userID, otherID uuid.UUID) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, userID, otherID)
	}
	return nil
}

func (m *mockFriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []models.FriendWithUser{}, nil
}

func (m *mockFriendshipService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendshipRequestDetail, error) {
	if m.ListPendingRequestsFunc != nil {
		return m.ListPendingRequestsFunc(ctx, userID)
	}
	return []models.FriendshipRequestDetail{}, nil
}

func (m *mockFriendshipService) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	if m.AreFriendsFunc != nil {
		return m.AreFriendsFunc(ctx, userID, otherID)
	}
	return false, nil
}

func (m *mockFriendshipService) FriendsCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.FriendsCountFunc != nil {
		return m.FriendsCountFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockFriendshipService) RelationshipTo(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.Relationship, error) {
	if m.RelationshipToFunc != nil {
		return m.RelationshipToFunc(ctx, viewerID, subjectID)
	}
	return &models.Relationship{Status: models.RelationshipNone}, nil
}

type mockEventService struct {
	CreateFunc          func(ctx context.Context, creatorID uuid.UUID, params models.CreateEventParams) (*models.Event, error)
	GetByIDFunc         func(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	ListByCreatorFunc   func(ctx context.Context, creatorID uuid.UUID) ([]models.EventSummary, error)
	ListAttendingFunc   func(ctx context.Context, userID uuid.UUID) ([]models.EventSummary, error)
	DeleteFunc          func(ctx context.Context, actorID, eventID uuid.UUID) error
	RequestToJoinFunc   func(ctx context.Context, eventID, senderID uuid.UUID, comment string) (*models.EventAttendeeRequest, error)
	ActOnRequestFunc    func(ctx context.Context, actorID, eventID, requestID uuid.UUID, action services.JoinRequestAction) (*models.EventAttendeeRequest, error)
	PendingRequestsFunc func(ctx context.Context, actorID, eventID uuid.UUID) ([]models.JoinRequestDetail, error)
	AttendeesFunc       func(ctx context.Context, eventID uuid.UUID) ([]models.AttendeeWithUser, error)
	AttendeeCountFunc   func(ctx context.Context, eventID uuid.UUID) (int, error)
}

func (m *mockEventService) Create(ctx context.Context, creatorID uuid.UUID, params models.CreateEventParams) (*models.Event, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, creatorID, params)
	}
	return &models.Event{}, nil
}

func (m *mockEventService) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, eventID)
	}
	return nil, services.ErrEventNotFound
}

func (m *mockEventService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.EventSummary, error) {
	if m.ListByCreatorFunc != nil {
		return m.ListByCreatorFunc(ctx, creatorID)
	}
	return []models.EventSummary{}, nil
}

func (m *mockEventService) ListAttending(ctx context.Context, userID uuid.UUID) ([]models.EventSummary, error) {
	if m.ListAttendingFunc != nil {
		return m.ListAttendingFunc(ctx, userID)
	}
	return []models.EventSummary{}, nil
}

func (m *mockEventService) Delete(ctx context.Context, actorID, eventID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actorID, eventID)
	}
	return nil
}

func (m *mockEventService) RequestToJoin(ctx context.Context, eventID, senderID uuid.UUID, comment string) (*models.EventAttendeeRequest, error) {
	if m.RequestToJoinFunc != nil {
		return m.RequestToJoinFunc(ctx, eventID, senderID, comment)
	}
	return &models.EventAttendeeRequest{}, nil
}

func (m *mockEventService) ActOnRequest(ctx context.Context, actorID, eventID, requestID uuid.UUID, action services.JoinRequestAction) (*models.EventAttendeeRequest, error) {
	if m.ActOnRequestFunc != nil {
		return m.ActOnRequestFunc(ctx, actorID, eventID, requestID, action)
	}
	return &models.EventAttendeeRequest{}, nil
}

func (m *mockEventService) PendingRequests(ctx context.Context, actorID, eventID uuid.UUID) ([]models.JoinRequestDetail, error) {
	if m.PendingRequestsFunc != nil {
		return m.PendingRequestsFunc(ctx, actorID, eventID)
	}
	return []models.JoinRequestDetail{}, nil
}

func (m *mockEventService) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.AttendeeWithUser, error) {
	if m.AttendeesFunc != nil {
		return m.AttendeesFunc(ctx, eventID)
	}
	return []models.AttendeeWithUser{}, nil
}

func (m *mockEventService) AttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	if m.AttendeeCountFunc != nil {
		return m.AttendeeCountFunc(ctx, eventID)
	}
	return 0, nil
}

type mockTelegramVerifier struct {
	VerifyFunc func(login services.TelegramLogin) error
}

func (m *mockTelegramVerifier) Verify(login services.TelegramLogin) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(login)
	}
	return nil
}

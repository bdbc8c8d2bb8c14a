package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/plansapp/plans/internal/models"
)

var (
	ErrFriendshipNotFound    = errors.New("friendship not found")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrFriendRequestNotFound = errors.New("friendship request not found")
	ErrFriendRequestExists   = errors.New("a pending friendship request already exists")
	ErrRequestNotPending     = errors.New("request is no longer pending")
)

const friendRequestColumns = `id, sender_id, receiver_id, comment, accepted_at, rejected_at, created_at`

// FriendshipService owns the friendship-request state machine and the
// paired directional edges. Requests go pending→accepted or
// pending→rejected exactly once; accepting creates both edges in the
// same transaction as the state change.
type FriendshipService struct {
	db DBConn
}

func NewFriendshipService(db DBConn) *FriendshipService {
	return &FriendshipService{db: db}
}

func scanFriendRequest(row Row) (*models.FriendshipRequest, error) {
	req := &models.FriendshipRequest{}
	err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Comment,
		&req.AcceptedAt, &req.RejectedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// SendRequest creates a pending request sender→receiver. It conflicts
// when the pair is already friends or when a pending request exists in
// either direction.
func (s *FriendshipService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID, comment string) (*models.FriendshipRequest, error) {
	friends, err := s.edgeExists(ctx, s.db, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	var pendingExists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendship_requests
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
			  AND accepted_at IS NULL AND rejected_at IS NULL
		)`,
		senderID, receiverID,
	).Scan(&pendingExists)
	if err != nil {
		return nil, fmt.Errorf("checking pending request: %w", err)
	}
	if pendingExists {
		return nil, ErrFriendRequestExists
	}

	req, err := scanFriendRequest(s.db.QueryRow(ctx,
		`INSERT INTO friendship_requests (sender_id, receiver_id, comment)
		 VALUES ($1, $2, $3)
		 RETURNING `+friendRequestColumns,
		senderID, receiverID, comment,
	))
	if isUniqueViolation(err) {
		return nil, ErrFriendRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating friendship request: %w", err)
	}

	return req, nil
}

// CancelRequest deletes the pending request sender→receiver. Terminal
// requests cannot be cancelled.
func (s *FriendshipService) CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM friendship_requests
		 WHERE sender_id = $1 AND receiver_id = $2
		   AND accepted_at IS NULL AND rejected_at IS NULL`,
		senderID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("cancelling friendship request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFriendRequestNotFound
	}
	return nil
}

// AcceptRequest marks the pending request requester→accepter accepted
// and inserts both directional edges, all in one transaction. The
// pending claim is a conditional UPDATE so a concurrent accept or
// reject loses cleanly.
func (s *FriendshipService) AcceptRequest(ctx context.Context, accepterID, requesterID uuid.UUID) (*models.FriendshipRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	friends, err := s.edgeExists(ctx, tx, accepterID, requesterID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	req, err := scanFriendRequest(tx.QueryRow(ctx,
		`UPDATE friendship_requests SET accepted_at = now()
		 WHERE sender_id = $1 AND receiver_id = $2
		   AND accepted_at IS NULL AND rejected_at IS NULL
		 RETURNING `+friendRequestColumns,
		requesterID, accepterID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyMissingRequest(ctx, tx, requesterID, accepterID)
	}
	if err != nil {
		return nil, fmt.Errorf("accepting friendship request: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friendships (user_id, friend_id)
		 VALUES ($1, $2), ($2, $1)`,
		requesterID, accepterID,
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyFriends
	}
	if err != nil {
		return nil, fmt.Errorf("creating friendship edges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing acceptance: %w", err)
	}
	return req, nil
}

// RejectRequest marks the pending request requester→rejecter rejected.
func (s *FriendshipService) RejectRequest(ctx context.Context, rejecterID, requesterID uuid.UUID) (*models.FriendshipRequest, error) {
	req, err := scanFriendRequest(s.db.QueryRow(ctx,
		`UPDATE friendship_requests SET rejected_at = now()
		 WHERE sender_id = $1 AND receiver_id = $2
		   AND accepted_at IS NULL AND rejected_at IS NULL
		 RETURNING `+friendRequestColumns,
		requesterID, rejecterID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyMissingRequest(ctx, s.db, requesterID, rejecterID)
	}
	if err != nil {
		return nil, fmt.Errorf("rejecting friendship request: %w", err)
	}
	return req, nil
}

// Remove deletes every edge between the pair. Both edges exist in
// steady state; a corrupt single-edge pair is still removed rather than
// wedging the operation.
func (s *FriendshipService) Remove(ctx context.Context, userID, otherID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE (user_id = $1 AND friend_id = $2)
		    OR (user_id = $2 AND friend_id = $1)`,
		userID, otherID,
	)
	if err != nil {
		return fmt.Errorf("removing friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

func (s *FriendshipService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendWithUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.id, f.user_id, f.friend_id, f.created_at,
		        u.id, u.email, u.first_name, u.last_name
		 FROM friendships f
		 JOIN users u ON f.friend_id = u.id
		 WHERE f.user_id = $1
		 ORDER BY u.first_name, u.last_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.FriendWithUser{}
	for rows.Next() {
		var f models.FriendWithUser
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt,
			&f.Friend.ID, &f.Friend.Email, &f.Friend.FirstName, &f.Friend.LastName); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friends: %w", err)
	}

	return friends, nil
}

// ListPendingRequests returns the user's pending requests in both
// directions, newest first.
func (s *FriendshipService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendshipRequestDetail, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.sender_id, r.receiver_id, r.comment, r.accepted_at, r.rejected_at, r.created_at,
		        s.id, s.email, s.first_name, s.last_name,
		        t.id, t.email, t.first_name, t.last_name
		 FROM friendship_requests r
		 JOIN users s ON r.sender_id = s.id
		 JOIN users t ON r.receiver_id = t.id
		 WHERE (r.sender_id = $1 OR r.receiver_id = $1)
		   AND r.accepted_at IS NULL AND r.rejected_at IS NULL
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friendship requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendshipRequestDetail{}
	for rows.Next() {
		var r models.FriendshipRequestDetail
		if err := rows.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.Comment, &r.AcceptedAt, &r.RejectedAt, &r.CreatedAt,
			&r.Sender.ID, &r.Sender.Email, &r.Sender.FirstName, &r.Sender.LastName,
			&r.Receiver.ID, &r.Receiver.Email, &r.Receiver.FirstName, &r.Receiver.LastName); err != nil {
			return nil, fmt.Errorf("scanning friendship request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friendship requests: %w", err)
	}

	return requests, nil
}

// FriendshipWith returns the directed edge userID→otherID, if any.
func (s *FriendshipService) FriendshipWith(ctx context.Context, userID, otherID uuid.UUID) (*models.Friendship, error) {
	f := &models.Friendship{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, friend_id, created_at
		 FROM friendships WHERE user_id = $1 AND friend_id = $2`,
		userID, otherID,
	).Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return f, nil
}

// PendingRequestFrom returns the pending request senderID→receiverID,
// if any.
func (s *FriendshipService) PendingRequestFrom(ctx context.Context, senderID, receiverID uuid.UUID) (*models.FriendshipRequest, error) {
	req, err := scanFriendRequest(s.db.QueryRow(ctx,
		`SELECT `+friendRequestColumns+`
		 FROM friendship_requests
		 WHERE sender_id = $1 AND receiver_id = $2
		   AND accepted_at IS NULL AND rejected_at IS NULL`,
		senderID, receiverID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting pending request: %w", err)
	}
	return req, nil
}

func (s *FriendshipService) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return s.edgeExists(ctx, s.db, userID, otherID)
}

func (s *FriendshipService) FriendsCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting friends: %w", err)
	}
	return count, nil
}

// RelationshipTo assembles the viewer's relationship to a profile
// subject for the detail view.
func (s *FriendshipService) RelationshipTo(ctx context.Context, viewerID, subjectID uuid.UUID) (*models.Relationship, error) {
	rel := &models.Relationship{Status: models.RelationshipNone}

	friendship, err := s.FriendshipWith(ctx, viewerID, subjectID)
	if err != nil && !errors.Is(err, ErrFriendshipNotFound) {
		return nil, err
	}
	if friendship != nil {
		rel.Friendship = friendship
		rel.Status = models.RelationshipFriends
		return rel, nil
	}

	incoming, err := s.PendingRequestFrom(ctx, subjectID, viewerID)
	if err != nil && !errors.Is(err, ErrFriendRequestNotFound) {
		return nil, err
	}
	if incoming != nil {
		rel.RequestFrom = incoming
		rel.Status = models.RelationshipPendingIncoming
	}

	outgoing, err := s.PendingRequestFrom(ctx, viewerID, subjectID)
	if err != nil && !errors.Is(err, ErrFriendRequestNotFound) {
		return nil, err
	}
	if outgoing != nil {
		rel.RequestTo = outgoing
		if rel.Status == models.RelationshipNone {
			rel.Status = models.RelationshipPendingOutgoing
		}
	}

	return rel, nil
}

func (s *FriendshipService) edgeExists(ctx context.Context, q Queryer, userID, otherID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2)
			   OR (user_id = $2 AND friend_id = $1)
		)`,
		userID, otherID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking friendship existence: %w", err)
	}
	return exists, nil
}

// classifyMissingRequest distinguishes a request that never existed
// from one that already went terminal, after a pending-claim UPDATE
// matched no rows.
func (s *FriendshipService) classifyMissingRequest(ctx context.Context, q Queryer, senderID, receiverID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendship_requests
			WHERE sender_id = $1 AND receiver_id = $2
		)`,
		senderID, receiverID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking request existence: %w", err)
	}
	if exists {
		return ErrRequestNotPending
	}
	return ErrFriendRequestNotFound
}

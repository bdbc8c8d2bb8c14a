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
	ErrEventNotFound       = errors.New("event not found")
	ErrNotEventCreator     = errors.New("only the event creator can do this")
	ErrAlreadyAttendee     = errors.New("user is already an attendee")
	ErrJoinRequestNotFound = errors.New("join request not found")
	ErrJoinRequestExists   = errors.New("a pending join request already exists")
)

// JoinRequestAction is what the event creator does to a pending request.
type JoinRequestAction string

const (
	JoinRequestAccept JoinRequestAction = "accept"
	JoinRequestReject JoinRequestAction = "reject"
)

const (
	eventColumns       = `id, creator_id, title, description, started_at, ended_at, location, latitude, longitude, created_at`
	joinRequestColumns = `id, event_id, sender_id, comment, accepted_at, rejected_at, created_at`
)

// EventService owns events, attendee membership and the join-request
// state machine. Membership rows are created only by accepting a
// request; accepting and the attendee insert commit together.
type EventService struct {
	db DBConn
}

func NewEventService(db DBConn) *EventService {
	return &EventService{db: db}
}

func scanEvent(row Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(&e.ID, &e.CreatorID, &e.Title, &e.Description, &e.StartedAt, &e.EndedAt,
		&e.Location, &e.Latitude, &e.Longitude, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanJoinRequest(row Row) (*models.EventAttendeeRequest, error) {
	req := &models.EventAttendeeRequest{}
	err := row.Scan(&req.ID, &req.EventID, &req.SenderID, &req.Comment,
		&req.AcceptedAt, &req.RejectedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create stores a new event. The creator is not added as an attendee.
func (s *EventService) Create(ctx context.Context, creatorID uuid.UUID, params models.CreateEventParams) (*models.Event, error) {
	event, err := scanEvent(s.db.QueryRow(ctx,
		`INSERT INTO events (creator_id, title, description, started_at, ended_at, location, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+eventColumns,
		creatorID, params.Title, params.Description, params.StartedAt, params.EndedAt,
		params.Location, params.Latitude, params.Longitude,
	))
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return event, nil
}

func (s *EventService) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	event, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return event, nil
}

func (s *EventService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.EventSummary, error) {
	return s.listEvents(ctx,
		`SELECT e.id, e.creator_id, e.title, e.description, e.started_at, e.ended_at,
		        e.location, e.latitude, e.longitude, e.created_at,
		        u.id, u.email, u.first_name, u.last_name,
		        (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
		 FROM events e
		 JOIN users u ON e.creator_id = u.id
		 WHERE e.creator_id = $1
		 ORDER BY e.created_at DESC`,
		creatorID,
	)
}

// ListAttending returns the events the user has a confirmed membership
// row on.
func (s *EventService) ListAttending(ctx context.Context, userID uuid.UUID) ([]models.EventSummary, error) {
	return s.listEvents(ctx,
		`SELECT e.id, e.creator_id, e.title, e.description, e.started_at, e.ended_at,
		        e.location, e.latitude, e.longitude, e.created_at,
		        u.id, u.email, u.first_name, u.last_name,
		        (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
		 FROM events e
		 JOIN users u ON e.creator_id = u.id
		 JOIN event_attendees m ON m.event_id = e.id AND m.user_id = $1
		 ORDER BY e.created_at DESC`,
		userID,
	)
}

func (s *EventService) listEvents(ctx context.Context, sql string, args ...any) ([]models.EventSummary, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []models.EventSummary{}
	for rows.Next() {
		var e models.EventSummary
		if err := rows.Scan(&e.ID, &e.CreatorID, &e.Title, &e.Description, &e.StartedAt, &e.EndedAt,
			&e.Location, &e.Latitude, &e.Longitude, &e.CreatedAt,
			&e.Creator.ID, &e.Creator.Email, &e.Creator.FirstName, &e.Creator.LastName,
			&e.AttendeesCount); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// Delete removes the event and everything hanging off it. The cascade
// is explicit: requests, then attendees, then the event, in one
// transaction.
func (s *EventService) Delete(ctx context.Context, actorID, eventID uuid.UUID) error {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID != actorID {
		return ErrNotEventCreator
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM event_attendee_requests WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("deleting event requests: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event_attendees WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("deleting event attendees: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing event deletion: %w", err)
	}
	return nil
}

// RequestToJoin creates a pending join request. Existing attendees and
// duplicate pending requests conflict.
func (s *EventService) RequestToJoin(ctx context.Context, eventID, senderID uuid.UUID, comment string) (*models.EventAttendeeRequest, error) {
	if _, err := s.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	attendee, err := s.isAttendee(ctx, s.db, eventID, senderID)
	if err != nil {
		return nil, err
	}
	if attendee {
		return nil, ErrAlreadyAttendee
	}

	var pendingExists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM event_attendee_requests
			WHERE event_id = $1 AND sender_id = $2
			  AND accepted_at IS NULL AND rejected_at IS NULL
		)`,
		eventID, senderID,
	).Scan(&pendingExists)
	if err != nil {
		return nil, fmt.Errorf("checking pending join request: %w", err)
	}
	if pendingExists {
		return nil, ErrJoinRequestExists
	}

	req, err := scanJoinRequest(s.db.QueryRow(ctx,
		`INSERT INTO event_attendee_requests (event_id, sender_id, comment)
		 VALUES ($1, $2, $3)
		 RETURNING `+joinRequestColumns,
		eventID, senderID, comment,
	))
	if isUniqueViolation(err) {
		return nil, ErrJoinRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating join request: %w", err)
	}

	return req, nil
}

// ActOnRequest accepts or rejects a pending join request. Only the
// event creator may act; accepting claims the pending row and inserts
// the attendee in one transaction.
func (s *EventService) ActOnRequest(ctx context.Context, actorID, eventID, requestID uuid.UUID, action JoinRequestAction) (*models.EventAttendeeRequest, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actorID {
		return nil, ErrNotEventCreator
	}

	req, err := scanJoinRequest(s.db.QueryRow(ctx,
		`SELECT `+joinRequestColumns+`
		 FROM event_attendee_requests WHERE id = $1 AND event_id = $2`,
		requestID, eventID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting join request: %w", err)
	}
	if !req.IsPending() {
		return nil, ErrRequestNotPending
	}

	// Stale-request guard: the sender may have been admitted through
	// another request since this one was filed.
	attendee, err := s.isAttendee(ctx, s.db, eventID, req.SenderID)
	if err != nil {
		return nil, err
	}
	if attendee {
		return nil, ErrAlreadyAttendee
	}

	switch action {
	case JoinRequestAccept:
		return s.acceptRequest(ctx, req)
	case JoinRequestReject:
		return s.rejectRequest(ctx, req)
	default:
		return nil, fmt.Errorf("unknown join request action %q", action)
	}
}

func (s *EventService) acceptRequest(ctx context.Context, req *models.EventAttendeeRequest) (*models.EventAttendeeRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := scanJoinRequest(tx.QueryRow(ctx,
		`UPDATE event_attendee_requests SET accepted_at = now()
		 WHERE id = $1 AND accepted_at IS NULL AND rejected_at IS NULL
		 RETURNING `+joinRequestColumns,
		req.ID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("accepting join request: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`,
		req.EventID, req.SenderID,
	)
	if isUniqueViolation(err) {
		return nil, ErrAlreadyAttendee
	}
	if err != nil {
		return nil, fmt.Errorf("creating attendee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing acceptance: %w", err)
	}
	return updated, nil
}

func (s *EventService) rejectRequest(ctx context.Context, req *models.EventAttendeeRequest) (*models.EventAttendeeRequest, error) {
	updated, err := scanJoinRequest(s.db.QueryRow(ctx,
		`UPDATE event_attendee_requests SET rejected_at = now()
		 WHERE id = $1 AND accepted_at IS NULL AND rejected_at IS NULL
		 RETURNING `+joinRequestColumns,
		req.ID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("rejecting join request: %w", err)
	}
	return updated, nil
}

// PendingRequests lists the action-required requests for an event,
// visible to the creator only.
func (s *EventService) PendingRequests(ctx context.Context, actorID, eventID uuid.UUID) ([]models.JoinRequestDetail, error) {
	event, err := s.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actorID {
		return nil, ErrNotEventCreator
	}

	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.event_id, r.sender_id, r.comment, r.accepted_at, r.rejected_at, r.created_at,
		        u.id, u.email, u.first_name, u.last_name
		 FROM event_attendee_requests r
		 JOIN users u ON r.sender_id = u.id
		 WHERE r.event_id = $1 AND r.accepted_at IS NULL AND r.rejected_at IS NULL
		 ORDER BY r.created_at`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing join requests: %w", err)
	}
	defer rows.Close()

	requests := []models.JoinRequestDetail{}
	for rows.Next() {
		var r models.JoinRequestDetail
		if err := rows.Scan(&r.ID, &r.EventID, &r.SenderID, &r.Comment, &r.AcceptedAt, &r.RejectedAt, &r.CreatedAt,
			&r.Sender.ID, &r.Sender.Email, &r.Sender.FirstName, &r.Sender.LastName); err != nil {
			return nil, fmt.Errorf("scanning join request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating join requests: %w", err)
	}

	return requests, nil
}

func (s *EventService) Attendees(ctx context.Context, eventID uuid.UUID) ([]models.AttendeeWithUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT a.id, a.event_id, a.user_id, a.created_at,
		        u.id, u.email, u.first_name, u.last_name
		 FROM event_attendees a
		 JOIN users u ON a.user_id = u.id
		 WHERE a.event_id = $1
		 ORDER BY a.created_at`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attendees: %w", err)
	}
	defer rows.Close()

	attendees := []models.AttendeeWithUser{}
	for rows.Next() {
		var a models.AttendeeWithUser
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.CreatedAt,
			&a.User.ID, &a.User.Email, &a.User.FirstName, &a.User.LastName); err != nil {
			return nil, fmt.Errorf("scanning attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendees: %w", err)
	}

	return attendees, nil
}

func (s *EventService) AttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting attendees: %w", err)
	}
	return count, nil
}

func (s *EventService) isAttendee(ctx context.Context, q Queryer, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2
		)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking attendee existence: %w", err)
	}
	return exists, nil
}

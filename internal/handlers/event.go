package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plansapp/plans/internal/models"
	"github.com/plansapp/plans/internal/services"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxLocationLength    = 255
	maxCommentLength     = 1000
)

type EventHandler struct {
	eventService services.EventServiceInterface
	userService  services.UserServiceInterface
}

func NewEventHandler(eventService services.EventServiceInterface, userService services.UserServiceInterface) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		userService:  userService,
	}
}

type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
}

type JoinRequestRequest struct {
	Comment string `json:"comment"`
}

type JoinRequestActionRequest struct {
	Action string `json:"action"`
}

type EventListResponse struct {
	Events []models.EventSummary `json:"events"`
}

type EventDetailResponse struct {
	Event           *models.Event              `json:"event"`
	Creator         models.UserRef             `json:"creator"`
	Attendees       []models.AttendeeWithUser  `json:"attendees"`
	PendingRequests []models.JoinRequestDetail `json:"pending_requests,omitempty"`
}

type JoinRequestResponse struct {
	Request *models.EventAttendeeRequest `json:"request"`
}

func (h *EventHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	events, err := h.eventService.ListByCreator(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing events: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, EventListResponse{Events: events})
}

func (h *EventHandler) ListAttending(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	events, err := h.eventService.ListAttending(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing attending events: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, EventListResponse{Events: events})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}

	params, err := validateEventParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	event, err := h.eventService.Create(r.Context(), user.ID, params)
	if err != nil {
		log.Printf("Error creating event: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, EventDetailResponse{
		Event:     event,
		Creator:   user.Ref(),
		Attendees: []models.AttendeeWithUser{},
	})
}

// Get returns the event detail. Pending join requests are included for
// the creator only.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("Error getting event: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	creator, err := h.userService.GetByID(r.Context(), event.CreatorID)
	if err != nil {
		log.Printf("Error getting event creator: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	attendees, err := h.eventService.Attendees(r.Context(), eventID)
	if err != nil {
		log.Printf("Error listing attendees: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	resp := EventDetailResponse{
		Event:     event,
		Creator:   creator.Ref(),
		Attendees: attendees,
	}

	if event.CreatorID == user.ID {
		requests, err := h.eventService.PendingRequests(r.Context(), user.ID, eventID)
		if err != nil {
			log.Printf("Error listing join requests: %v", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
			return
		}
		resp.PendingRequests = requests
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid event ID")
		return
	}

	err = h.eventService.Delete(r.Context(), user.ID, eventID)
	if err != nil {
		writeEventError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid event ID")
		return
	}

	var req JoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}
	if len(req.Comment) > maxCommentLength {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Comment is too long")
		return
	}

	request, err := h.eventService.RequestToJoin(r.Context(), eventID, user.ID, req.Comment)
	if err != nil {
		writeEventError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, JoinRequestResponse{Request: request})
}

func (h *EventHandler) ActOnRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid event ID")
		return
	}
	requestID, err := uuid.Parse(r.PathValue("rid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request ID")
		return
	}

	var req JoinRequestActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}

	var action services.JoinRequestAction
	switch req.Action {
	case string(services.JoinRequestAccept):
		action = services.JoinRequestAccept
	case string(services.JoinRequestReject):
		action = services.JoinRequestReject
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Unknown action")
		return
	}

	request, err := h.eventService.ActOnRequest(r.Context(), user.ID, eventID, requestID, action)
	if err != nil {
		writeEventError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, JoinRequestResponse{Request: request})
}

func validateEventParams(req CreateEventRequest) (models.CreateEventParams, error) {
	var params models.CreateEventParams

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return params, errors.New("Title is required")
	}
	if len(req.Title) > maxTitleLength {
		return params, errors.New("Title is too long")
	}
	if len(req.Description) > maxDescriptionLength {
		return params, errors.New("Description is too long")
	}
	if len(req.Location) > maxLocationLength {
		return params, errors.New("Location is too long")
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		return params, errors.New("Latitude and longitude must be provided together")
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 {
			return params, errors.New("Latitude must be between -90 and 90")
		}
		if *req.Longitude < -180 || *req.Longitude > 180 {
			return params, errors.New("Longitude must be between -180 and 180")
		}
		lat := roundCoordinate(*req.Latitude)
		lng := roundCoordinate(*req.Longitude)
		req.Latitude = &lat
		req.Longitude = &lng
	}

	params.Title = req.Title
	params.Description = strings.TrimSpace(req.Description)
	params.StartedAt = req.StartedAt
	params.EndedAt = req.EndedAt
	params.Location = strings.TrimSpace(req.Location)
	params.Latitude = req.Latitude
	params.Longitude = req.Longitude
	return params, nil
}

// roundCoordinate clamps coordinates to the six decimal places the
// schema stores.
func roundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Event not found")
	case errors.Is(err, services.ErrNotEventCreator):
		writeError(w, http.StatusForbidden, codeForbidden, "Only the event creator can do this")
	case errors.Is(err, services.ErrAlreadyAttendee):
		writeError(w, http.StatusBadRequest, codeConflict, "User is already an attendee")
	case errors.Is(err, services.ErrJoinRequestExists):
		writeError(w, http.StatusBadRequest, codeConflict, "A pending join request already exists")
	case errors.Is(err, services.ErrRequestNotPending):
		writeError(w, http.StatusBadRequest, codeRequestNotPending, "Join request is no longer pending")
	case errors.Is(err, services.ErrJoinRequestNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Join request not found")
	default:
		log.Printf("Error handling event request: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
	}
}

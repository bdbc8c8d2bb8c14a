package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/plansapp/plans/internal/models"
	"github.com/plansapp/plans/internal/services"
)

type UserHandler struct {
	userService       services.UserServiceInterface
	friendshipService services.FriendshipServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface, friendshipService services.FriendshipServiceInterface) *UserHandler {
	return &UserHandler{
		userService:       userService,
		friendshipService: friendshipService,
	}
}

// FriendshipActionRequest is the typed body for POST /api/user/{uuid}.
type FriendshipActionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

const (
	actionSend   = "send"
	actionCancel = "cancel"
	actionAccept = "accept"
	actionReject = "reject"
	actionRemove = "remove"
)

type ProfileResponse struct {
	User          models.UserRef       `json:"user"`
	FriendsCount  int                  `json:"friends_count"`
	Relationship  *models.Relationship `json:"relationship"`
	CanBeFriended bool                 `json:"can_be_added_as_a_friend"`
}

type FriendListResponse struct {
	Friends []models.FriendWithUser `json:"friends"`
}

type FriendRequestListResponse struct {
	Requests []models.FriendshipRequestDetail `json:"requests"`
}

// GetProfile returns another user's profile as seen by the viewer,
// including the relationship between the two.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewer := GetUserFromContext(r.Context())
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	subjectID, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid user ID")
		return
	}

	h.writeProfile(w, r, viewer.ID, subjectID, http.StatusOK)
}

// FriendshipAction applies a relationship action against the user in
// the path and returns the updated profile.
func (h *UserHandler) FriendshipAction(w http.ResponseWriter, r *http.Request) {
	viewer := GetUserFromContext(r.Context())
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	subjectID, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid user ID")
		return
	}
	if subjectID == viewer.ID {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Cannot perform friendship actions on yourself")
		return
	}

	var req FriendshipActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}

	switch req.Action {
	case actionSend:
		_, err = h.friendshipService.SendRequest(r.Context(), viewer.ID, subjectID, req.Comment)
	case actionCancel:
		err = h.friendshipService.CancelRequest(r.Context(), viewer.ID, subjectID)
	case actionAccept:
		_, err = h.friendshipService.AcceptRequest(r.Context(), viewer.ID, subjectID)
	case actionReject:
		_, err = h.friendshipService.RejectRequest(r.Context(), viewer.ID, subjectID)
	case actionRemove:
		err = h.friendshipService.Remove(r.Context(), viewer.ID, subjectID)
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Unknown action")
		return
	}

	if err != nil {
		writeFriendshipError(w, err)
		return
	}

	h.writeProfile(w, r, viewer.ID, subjectID, http.StatusOK)
}

func (h *UserHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing friends: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *UserHandler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	requests, err := h.friendshipService.ListPendingRequests(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing friend requests: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: requests})
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, viewerID, subjectID uuid.UUID, status int) {
	subject, err := h.userService.GetByID(r.Context(), subjectID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	count, err := h.friendshipService.FriendsCount(r.Context(), subjectID)
	if err != nil {
		log.Printf("Error counting friends: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	relationship, err := h.friendshipService.RelationshipTo(r.Context(), viewerID, subjectID)
	if err != nil {
		log.Printf("Error resolving relationship: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, status, ProfileResponse{
		User:          subject.Ref(),
		FriendsCount:  count,
		Relationship:  relationship,
		CanBeFriended: viewerID != subjectID && relationship.Status == models.RelationshipNone,
	})
}

func writeFriendshipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "User not found")
	case errors.Is(err, services.ErrAlreadyFriends):
		writeError(w, http.StatusBadRequest, codeConflict, "Users are already friends")
	case errors.Is(err, services.ErrFriendRequestExists):
		writeError(w, http.StatusBadRequest, codeConflict, "A pending friend request already exists")
	case errors.Is(err, services.ErrRequestNotPending):
		writeError(w, http.StatusBadRequest, codeRequestNotPending, "Friend request is no longer pending")
	case errors.Is(err, services.ErrFriendRequestNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Friend request not found")
	case errors.Is(err, services.ErrFriendshipNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Friendship not found")
	default:
		log.Printf("Error applying friendship action: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
	}
}

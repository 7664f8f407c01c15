// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gibiteca/internal/platform/middleware"
	requestutil "github.com/taibuivan/gibiteca/internal/platform/request"
	"github.com/taibuivan/gibiteca/internal/platform/respond"
	"github.com/taibuivan/gibiteca/internal/platform/sec"
	"github.com/taibuivan/gibiteca/pkg/pagination"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns the self-service endpoints mounted under /account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Account Management
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me", handler.deleteMe)

	// Session Security
	router.Get("/me/sessions", handler.listSessions)
	router.Delete("/me/sessions/{id}", handler.revokeSession)

	return router
}

// AdminRoutes returns the member administration endpoints mounted under /admin.
//
// # Endpoints
//   - GET  /users                      : Members with their roles.
//   - POST /users/{id}/toggle-admin    : Flips admin and member.
//   - POST /users/{id}/password-reset  : Issues a reset token.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.listMembers)
	router.Post("/users/{id}/toggle-admin", handler.toggleAdmin)
	router.Post("/users/{id}/password-reset", handler.issuePasswordReset)

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/account/me.

Response:
  - 200: User: The caller's profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
PATCH /api/v1/account/me.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: Validation: Blank or oversized display name
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// DELETE /api/v1/account/me soft-deletes the caller and revokes every session.
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Session Security Endpoints

// GET /api/v1/account/me/sessions lists the caller's live device sessions.
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
DELETE /api/v1/account/me/sessions/{id}.

Description: Forces a sign-out on a specific device identified by its session ID.

Response:
  - 204: No Content: Session terminated successfully
  - 404: NotFound: No live session of the caller has that id
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	userID, sessionID, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeSession(request.Context(), userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Admin Endpoints

/*
GET /api/v1/admin/users?page=&limit=.

Response:
  - 200: []Member with pagination meta
  - 403: Forbidden: Caller is not an admin
*/
func (handler *Handler) listMembers(writer http.ResponseWriter, request *http.Request) {
	members, meta, err := handler.accountService.ListMembers(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, members, meta)
}

// POST /api/v1/admin/users/{id}/toggle-admin flips the member's role.
func (handler *Handler) toggleAdmin(writer http.ResponseWriter, request *http.Request) {
	actorID, userID, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	member, err := handler.accountService.ToggleAdmin(request.Context(), actorID, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, member)
}

// POST /api/v1/admin/users/{id}/password-reset returns a fresh reset token.
func (handler *Handler) issuePasswordReset(writer http.ResponseWriter, request *http.Request) {
	actorID, userID, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	reset, err := handler.accountService.IssuePasswordReset(request.Context(), actorID, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, reset)
}

// ownerAndID reads the caller id and the {id} path parameter.
func ownerAndID(request *http.Request) (string, string, error) {
	callerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return "", "", err
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		return "", "", err
	}
	return callerID, id, nil
}

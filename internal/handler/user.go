package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets/internal/serializer"
	"github.com/sakif/snippets/internal/service"
)

// UserHandler is the user viewset. Every route sits behind
// auth.RequireAuth, so by the time a method runs the caller is known.
type UserHandler struct {
	service *service.UserService
	pager   Paginator
	logger  *slog.Logger
}

func NewUserHandler(svc *service.UserService, pager Paginator, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, pager: pager, logger: logger}
}

// HandleList returns one page of users, newest first.
//
// HTTP: GET /users/
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	req, err := h.pager.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}

	users, total, err := h.service.List(r.Context(), req.Limit(), req.Offset())
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := newPage(r, req, total, serializer.RepresentUsers(users, LinkerFromRequest(r)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleCreate registers a user.
//
// HTTP: POST /users/
// REQUEST BODY: {"username": "alice", "email": "a@b.c", "password": "...", "groups": ["http://host/groups/1/"]}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := serializer.DecodeUser(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.RepresentUser(user, LinkerFromRequest(r)))
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}/
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "user")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentUser(user, LinkerFromRequest(r)))
}

// HandleUpdate is PUT /users/{id}/ (username required).
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// HandlePartialUpdate is PATCH /users/{id}/.
func (h *UserHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(r, "user")
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	in, err := serializer.DecodeUser(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, in, partial)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentUser(user, LinkerFromRequest(r)))
}

// HandleDelete is DELETE /users/{id}/ → 204.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "user")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

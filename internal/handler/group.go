package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets/internal/serializer"
	"github.com/sakif/snippets/internal/service"
)

// GroupHandler is the group viewset. Like users, groups require an
// authenticated caller.
type GroupHandler struct {
	service *service.GroupService
	pager   Paginator
	logger  *slog.Logger
}

func NewGroupHandler(svc *service.GroupService, pager Paginator, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{service: svc, pager: pager, logger: logger}
}

// HandleList is GET /groups/, alphabetical.
func (h *GroupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	req, err := h.pager.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}

	groups, total, err := h.service.List(r.Context(), req.Limit(), req.Offset())
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := newPage(r, req, total, serializer.RepresentGroups(groups, LinkerFromRequest(r)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := serializer.DecodeGroup(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	group, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.RepresentGroup(group, LinkerFromRequest(r)))
}

func (h *GroupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "group")
	if err != nil {
		writeError(w, err)
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentGroup(group, LinkerFromRequest(r)))
}

func (h *GroupHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *GroupHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *GroupHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(r, "group")
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.service.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	in, err := serializer.DecodeGroup(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	group, err := h.service.Update(r.Context(), id, in, partial)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentGroup(group, LinkerFromRequest(r)))
}

// HandleDelete removes the group; memberships go with it.
func (h *GroupHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "group")
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

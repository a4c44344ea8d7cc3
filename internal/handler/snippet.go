package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/executor"
	"github.com/sakif/snippets/internal/serializer"
	"github.com/sakif/snippets/internal/service"
)

// SnippetHandler is the snippet viewset: list, create, retrieve, update,
// partial update and destroy, plus the run action.
//
// Snippets are public, so none of these routes require authentication.
//
// HANDLER'S JOB (and ONLY job):
//  1. Parse the HTTP request (URL params, JSON body, query string)
//  2. Call the service
//  3. Write the HTTP response (status code + serialized JSON)
//
// Validation and defaults live in the serializer and service layers.
type SnippetHandler struct {
	service *service.SnippetService
	exec    executor.Executor // nil when code execution is disabled
	pager   Paginator
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler. exec may be nil.
func NewSnippetHandler(svc *service.SnippetService, exec executor.Executor, pager Paginator, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		service: svc,
		exec:    exec,
		pager:   pager,
		logger:  logger,
	}
}

// HandleList returns one page of snippets, oldest first.
//
// HTTP: GET /snippets/?page=2&page_size=20
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	req, err := h.pager.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, total, err := h.service.List(r.Context(), req.Limit(), req.Offset())
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := newPage(r, req, total, serializer.RepresentSnippets(snippets))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /snippets/
// REQUEST BODY: {"code": "print(1)"}; every other field has a default.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := serializer.DecodeSnippet(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.RepresentSnippet(snippet))
}

// HandleGet returns a single snippet.
//
// HTTP: GET /snippets/{id}/
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentSnippet(snippet))
}

// HandleUpdate replaces a snippet. code is required.
//
// HTTP: PUT /snippets/{id}/
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// HandlePartialUpdate changes only the fields sent.
//
// HTTP: PATCH /snippets/{id}/
func (h *SnippetHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *SnippetHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	// An unknown id is a 404 whatever the body holds.
	if _, err := h.service.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	in, err := serializer.DecodeSnippet(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Update(r.Context(), id, in, partial)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentSnippet(snippet))
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /snippets/{id}/ → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "snippet")
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

// HandleRun executes the stored code in the sandbox for its language.
//
// HTTP: POST /snippets/{id}/run/
//
// A program that fails (non-zero exit, timeout) is still a 200: the run
// itself worked and the result says what happened.
func (h *SnippetHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "snippet")
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.exec == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "Code execution is not enabled on this server.",
		})
		return
	}

	h.logger.Info("running snippet",
		slog.Int64("id", snippet.ID),
		slog.String("language", snippet.Language),
	)

	result, err := h.exec.Execute(r.Context(), executor.ExecutionRequest{
		Language: snippet.Language,
		Code:     snippet.Code,
	})
	if errors.Is(err, executor.ErrUnsupportedLanguage) {
		writeError(w, apperror.ValidationFailed("language",
			"Running "+snippet.Language+" code is not supported."))
		return
	}
	if err != nil {
		h.logger.Error("code execution failed",
			slog.Int64("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.RepresentRun(snippet, result))
}

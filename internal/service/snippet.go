// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// WHY A SEPARATE SERVICE LAYER?
//  1. TESTING: business rules are tested with plain Go calls and fake
//     repositories, no HTTP requests needed.
//  2. REUSE: cmd/createuser creates users through the same UserService the
//     HTTP handlers use.
//  3. SEPARATION: handlers only know HTTP, services only know the rules,
//     neither knows SQL.
//
// Services take already-decoded serializer inputs and return model records.
// Validation failures come back as apperror values carrying a field -> messages
// map; the handler turns those into a 400 response.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
	"github.com/sakif/snippets/internal/serializer"
)

// SnippetService handles business logic for code snippets.
//
// Both fields are unexported: callers interact with SnippetService only
// through its methods.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
//
// This is where dependency injection happens: the caller decides WHICH
// repository implementation to use (SQLite, or a fake in tests).
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates in and saves a new snippet. Fields the client left out
// take their defaults (language "python", style "friendly", ...).
//
// Validation happens before anything touches the repository, so a rejected
// request has no side effects.
func (s *SnippetService) Create(ctx context.Context, in *serializer.SnippetInput) (*model.Snippet, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	snippet := in.Create()

	// The repo fills in ID and Created.
	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.String("language", snippet.Language),
	)

	return snippet, nil
}

// GetByID retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	// NotFound is a normal outcome, not worth an error log line; it's
	// already an apperror so it propagates as-is.
	return s.repo.GetByID(ctx, id)
}

// List returns one page of snippets (oldest first) and the total count.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, int, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count snippets", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("counting snippets: %w", err)
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, total, nil
}

// Update modifies an existing snippet.
//
// STRATEGY: "Fetch, validate, apply, save"
//  1. Fetch the existing snippet. An unknown id is a 404 even when the
//     body is also invalid.
//  2. Validate in. partial=false (PUT) requires code; partial=true (PATCH)
//     requires nothing.
//  3. Copy every field the client sent. Anything it left out keeps its
//     current value, for PUT and PATCH alike.
//  4. Save and return the full updated snippet.
func (s *SnippetService) Update(ctx context.Context, id int64, in *serializer.SnippetInput, partial bool) (*model.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(partial); err != nil {
		return nil, err
	}
	in.Apply(snippet)

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.Int64("id", snippet.ID),
		slog.Bool("partial", partial),
	)

	return snippet, nil
}

// Delete removes a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}

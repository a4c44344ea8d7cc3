package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
	"github.com/sakif/snippets/internal/serializer"
)

// MsgUsernameTaken is the field error for a duplicate username.
const MsgUsernameTaken = "A user with that username already exists."

// UserService manages user accounts and their group memberships.
type UserService struct {
	users     repository.UserRepository
	groups    repository.GroupRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	groups repository.GroupRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		groups:    groups,
		passwords: passwords,
		logger:    logger,
	}
}

// Create validates in and stores a new user. A supplied password is hashed;
// without one the account can only sign in through GitHub.
func (s *UserService) Create(ctx context.Context, in *serializer.UserInput) (*model.User, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in, 0); err != nil {
		return nil, err
	}

	user := in.Create()
	if err := s.setPassword(user, in.Password); err != nil {
		return nil, err
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, s.writeError("create", user, err)
	}

	s.logger.Info("user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
		slog.Int("groups", len(user.GroupIDs)),
	)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// List returns one page of users, most recently joined first, and the total.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	total, err := s.users.CountUsers(ctx)
	if err != nil {
		s.logger.Error("failed to count users", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	users, err := s.users.ListUsers(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// Update applies in to user id. Same rules as SnippetService.Update: fetch
// first (404 wins), then validate, then copy the fields that were sent.
// Memberships change only when "groups" is in the body.
func (s *UserService) Update(ctx context.Context, id int64, in *serializer.UserInput, partial bool) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(partial); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in, id); err != nil {
		return nil, err
	}

	in.Apply(user)
	if err := s.setPassword(user, in.Password); err != nil {
		return nil, err
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, s.writeError("update", user, err)
	}

	s.logger.Info("user updated",
		slog.Int64("id", user.ID),
		slog.Bool("partial", partial),
	)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// checkReferences runs the checks that need the database: the username must
// be free (ignoring selfID) and every linked group must exist. All problems
// are reported together.
func (s *UserService) checkReferences(ctx context.Context, in *serializer.UserInput, selfID int64) error {
	errs := serializer.Errors{}

	if in.Username != nil {
		taken, err := s.users.UsernameTaken(ctx, *in.Username, selfID)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}

	if len(in.GroupIDs) > 0 {
		missing, err := s.groups.MissingGroups(ctx, in.GroupIDs)
		if err != nil {
			return fmt.Errorf("checking groups: %w", err)
		}
		for range missing {
			errs.Add("groups", serializer.MsgNoSuchLink)
		}
	}

	return errs.Err()
}

// SetStaff flips the staff flag. It has no HTTP route; cmd/createuser uses it
// to bootstrap an administrator.
func (s *UserService) SetStaff(ctx context.Context, id int64, staff bool) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsStaff = staff
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, s.writeError("update", user, err)
	}
	return user, nil
}

func (s *UserService) setPassword(user *model.User, password *string) error {
	if password == nil {
		return nil
	}
	hash, err := s.passwords.Hash(*password)
	if err != nil {
		// Length limits are enforced by the serializer, so this is unexpected.
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// writeError maps a repository write failure. A UNIQUE violation means
// another request claimed the username between our check and the write.
func (s *UserService) writeError(op string, user *model.User, err error) error {
	if errors.Is(err, apperror.ErrConflict) {
		return apperror.ValidationFailed("username", MsgUsernameTaken)
	}
	s.logger.Error("failed to "+op+" user",
		slog.String("username", user.Username),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s user: %w", op, err)
}

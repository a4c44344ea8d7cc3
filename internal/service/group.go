package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
	"github.com/sakif/snippets/internal/serializer"
)

// MsgGroupNameTaken is the field error for a duplicate group name.
const MsgGroupNameTaken = "group with this name already exists."

type GroupService struct {
	repo   repository.GroupRepository
	logger *slog.Logger
}

func NewGroupService(repo repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{repo: repo, logger: logger}
}

func (s *GroupService) Create(ctx context.Context, in *serializer.GroupInput) (*model.Group, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in, 0); err != nil {
		return nil, err
	}

	group := in.Create()
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, s.writeError("create", group, err)
	}

	s.logger.Info("group created", slog.Int64("id", group.ID), slog.String("name", group.Name))
	return group, nil
}

func (s *GroupService) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	return s.repo.GetGroupByID(ctx, id)
}

// List returns one page of groups in name order and the total.
func (s *GroupService) List(ctx context.Context, limit, offset int) ([]model.Group, int, error) {
	total, err := s.repo.CountGroups(ctx)
	if err != nil {
		s.logger.Error("failed to count groups", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("counting groups: %w", err)
	}

	groups, err := s.repo.ListGroups(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list groups", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing groups: %w", err)
	}
	return groups, total, nil
}

func (s *GroupService) Update(ctx context.Context, id int64, in *serializer.GroupInput, partial bool) (*model.Group, error) {
	group, err := s.repo.GetGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := in.Validate(partial); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in, id); err != nil {
		return nil, err
	}

	in.Apply(group)
	if err := s.repo.UpdateGroup(ctx, group); err != nil {
		return nil, s.writeError("update", group, err)
	}

	s.logger.Info("group updated", slog.Int64("id", group.ID), slog.Bool("partial", partial))
	return group, nil
}

// Delete removes the group; members simply lose the membership.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.logger.Info("group deleted", slog.Int64("id", id))
	return nil
}

func (s *GroupService) checkName(ctx context.Context, in *serializer.GroupInput, selfID int64) error {
	if in.Name == nil {
		return nil
	}
	taken, err := s.repo.GroupNameTaken(ctx, *in.Name, selfID)
	if err != nil {
		return fmt.Errorf("checking group name: %w", err)
	}
	if taken {
		return apperror.ValidationFailed("name", MsgGroupNameTaken)
	}
	return nil
}

func (s *GroupService) writeError(op string, group *model.Group, err error) error {
	if errors.Is(err, apperror.ErrConflict) {
		return apperror.ValidationFailed("name", MsgGroupNameTaken)
	}
	s.logger.Error("failed to "+op+" group",
		slog.String("name", group.Name),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s group: %w", op, err)
}

package repository

import (
	"context"

	"github.com/sakif/snippets/internal/model"
)

// ListOptions selects one page of a collection. Implementations apply their
// own fixed ordering; callers only choose the window.
type ListOptions struct {
	Limit  int
	Offset int
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository stores users together with their group memberships.
// Create and Update write GroupIDs as the complete membership set.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) error
	GetGroupByID(ctx context.Context, id int64) (*model.Group, error)
	MissingGroups(ctx context.Context, ids []int64) ([]int64, error)
	GroupNameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	ListGroups(ctx context.Context, opts ListOptions) ([]model.Group, error)
	CountGroups(ctx context.Context) (int, error)
	UpdateGroup(ctx context.Context, group *model.Group) error
	DeleteGroup(ctx context.Context, id int64) error
}

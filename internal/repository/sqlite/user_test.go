package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string, groupIDs ...int64) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		GroupIDs: groupIDs,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "testuser", Email: "test@example.com"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.DateJoined.IsZero() {
		t.Error("CreateUser() did not set user.DateJoined")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken")

	err := db.CreateUser(context.Background(), &model.User{Username: "taken"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

// Password-only accounts store github_id as NULL, and UNIQUE ignores NULLs.
func TestUserCreate_ManyWithoutGitHub(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "one")
	createTestUser(t, db, "two")

	n, err := db.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountUsers() = %d, want 2", n)
	}
}

func TestUserCreate_DuplicateGitHubID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, &model.User{Username: "first", GitHubID: 99999}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	err := db.CreateUser(ctx, &model.User{Username: "second", GitHubID: 99999})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_WithGroups(t *testing.T) {
	db := newTestDB(t)
	admins := createTestGroup(t, db, "admins")
	staff := createTestGroup(t, db, "staff")

	user := createTestUser(t, db, "grouped", staff.ID, admins.ID)

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	want := []int64{admins.ID, staff.ID}
	if !reflect.DeepEqual(found.GroupIDs, want) {
		t.Errorf("GroupIDs = %v, want %v", found.GroupIDs, want)
	}
}

// A membership pointing at a missing group violates the foreign key, and the
// whole insert rolls back.
func TestUserCreate_UnknownGroupRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.CreateUser(ctx, &model.User{Username: "orphan", GroupIDs: []int64{77}})
	if err == nil {
		t.Fatal("CreateUser() should fail for an unknown group")
	}

	if _, err := db.GetUserByUsername(ctx, "orphan"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user row survived a failed insert: %v", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup")

	found, err := db.GetUserByUsername(context.Background(), "lookup")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.GitHubID != 0 {
		t.Errorf("GitHubID = %d, want 0 for a password-only account", found.GitHubID)
	}
}

func TestUserGetByGitHubID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := &model.User{Username: "octo", GitHubID: 778899}
	if err := db.CreateUser(ctx, created); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserByGitHubID(ctx, 778899)
	if err != nil {
		t.Fatalf("GetUserByGitHubID() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	if _, err := db.GetUserByGitHubID(ctx, 1); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByGitHubID(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestUsernameTaken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	taken, err := db.UsernameTaken(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("UsernameTaken() error = %v", err)
	}
	if !taken {
		t.Error("UsernameTaken(alice, 0) = false, want true")
	}

	// A user keeping their own name is not a clash.
	taken, err = db.UsernameTaken(ctx, "alice", alice.ID)
	if err != nil {
		t.Fatalf("UsernameTaken() error = %v", err)
	}
	if taken {
		t.Error("UsernameTaken(alice, alice.ID) = true, want false")
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListUsers_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"old", "middle", "new"} {
		u := &model.User{Username: name, DateJoined: base.Add(time.Duration(i) * time.Hour)}
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", name, err)
		}
	}

	users, err := db.ListUsers(ctx, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	var got []string
	for _, u := range users {
		got = append(got, u.Username)
	}
	want := []string{"new", "middle", "old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListUsers() order = %v, want %v", got, want)
	}
}

func TestListUsers_LoadsMemberships(t *testing.T) {
	db := newTestDB(t)
	g := createTestGroup(t, db, "readers")
	createTestUser(t, db, "member", g.ID)
	createTestUser(t, db, "loner")

	users, err := db.ListUsers(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	byName := map[string][]int64{}
	for _, u := range users {
		byName[u.Username] = u.GroupIDs
	}
	if !reflect.DeepEqual(byName["member"], []int64{g.ID}) {
		t.Errorf("member.GroupIDs = %v, want [%d]", byName["member"], g.ID)
	}
	if len(byName["loner"]) != 0 {
		t.Errorf("loner.GroupIDs = %v, want empty", byName["loner"])
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateUser_ReplacesMemberships(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestGroup(t, db, "a")
	b := createTestGroup(t, db, "b")
	user := createTestUser(t, db, "mover", a.ID)
	joined := user.DateJoined

	user.Email = "moved@example.com"
	user.IsStaff = true
	user.GroupIDs = []int64{b.ID}
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	found, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "moved@example.com" || !found.IsStaff {
		t.Errorf("profile not updated: %+v", found)
	}
	if !reflect.DeepEqual(found.GroupIDs, []int64{b.ID}) {
		t.Errorf("GroupIDs = %v, want [%d]", found.GroupIDs, b.ID)
	}
	if !found.DateJoined.Equal(joined) {
		t.Errorf("DateJoined changed: got %v, want %v", found.DateJoined, joined)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: 9, Username: "ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := createTestGroup(t, db, "g")
	user := createTestUser(t, db, "bye", g.ID)

	if err := db.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := db.GetUserByID(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() after delete: error = %v, want ErrNotFound", err)
	}

	// The membership row went with the user.
	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_group_members WHERE user_id = ?`, user.ID,
	).Scan(&n); err != nil {
		t.Fatalf("counting memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("%d membership rows left after delete, want 0", n)
	}

	if err := db.DeleteUser(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}

// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account that may call the protected endpoints.
//
// Users sign in either with a username and password (PasswordHash holds the
// bcrypt output) or through GitHub OAuth, in which case GitHubID links the
// GitHub account to this row.
//
// WHY GitHubID int64 (not *int64)?
// Zero means "no GitHub account linked". GitHub never hands out ID 0, and the
// DB stores zero as NULL so the UNIQUE constraint only applies to linked rows.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	GitHubID     int64
	IsStaff      bool
	DateJoined   time.Time
	GroupIDs     []int64 // memberships, sorted ascending
}

// HasUsablePassword reports whether the user can sign in with a password.
// GitHub-only accounts are created without one.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

// Group is a named collection of users.
type Group struct {
	ID   int64
	Name string
}

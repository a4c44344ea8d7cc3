// Command createuser adds an account with a password, so a fresh database
// has someone who can call the authenticated endpoints.
//
//	createuser --username admin --email admin@example.com --staff
//
// The shared flags (--config, --db, ...) work as they do for the server.
//
// The password is read from SNIPPETS_PASSWORD when set, otherwise from the
// first line of stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/config"
	"github.com/sakif/snippets/internal/apperror"
	sqliteRepo "github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/serializer"
	"github.com/sakif/snippets/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "createuser:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("createuser", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	username := fs.StringP("username", "u", "", "username (required)")
	email := fs.StringP("email", "e", "", "email address")
	staff := fs.Bool("staff", false, "mark the account as staff")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return errors.New("--username is required")
	}

	cfg, err := config.LoadFlags(fs)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	password, err := readPassword(stdin)
	if err != nil {
		return err
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	users := service.NewUserService(db, db, auth.NewPasswordService(), logger)

	// Going through the same serializer as POST /users/ keeps the username,
	// email and password rules identical.
	user, err := users.Create(ctx, &serializer.UserInput{
		Username: username,
		Email:    email,
		Password: &password,
	})
	if err != nil {
		return describe(err)
	}

	if *staff {
		if user, err = users.SetStaff(ctx, user.ID, true); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "created user %q with id %d (staff=%t)\n", user.Username, user.ID, user.IsStaff)
	return nil
}

// describe spells out field errors, which the API would return as JSON.
func describe(err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	var parts []string
	for field, msgs := range appErr.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, " "))
	}
	sort.Strings(parts)
	return errors.New(strings.Join(parts, "; "))
}

func readPassword(stdin io.Reader) (string, error) {
	if p := os.Getenv("SNIPPETS_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

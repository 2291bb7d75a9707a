// Command createuser creates a memopad account directly in the database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/repository"
	"github.com/memopad/memopad/internal/service"
)

type output struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Account email")
		password    = flag.String("password", os.Getenv("MEMOPAD_PASSWORD"), "Account password (defaults to $MEMOPAD_PASSWORD)")
		name        = flag.String("name", "", "Display name")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	accounts := service.NewAccountService(repo, metrics.NewNoop())
	in := service.SignUpInput{Email: *email, Password: *password, Name: *name}

	if err := createUser(ctx, accounts, in, *format, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func createUser(ctx context.Context, accounts *service.AccountService, in service.SignUpInput, format string, w io.Writer) error {
	format = strings.ToLower(format)
	if format != "plain" && format != "json" {
		return errors.New("invalid format; use plain or json")
	}

	user, err := accounts.SignUp(ctx, in)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
		case errors.Is(err, service.ErrEmailTaken):
			return fmt.Errorf("email %s is already registered", in.Email)
		default:
			return fmt.Errorf("create user: %w", err)
		}
	}

	if format == "plain" {
		_, err = fmt.Fprintln(w, user.ID)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{UserID: user.ID, Email: user.Email, Name: user.Name})
}

// Command manage runs one-off maintenance tasks against the configured backends.
//
//	manage migrate
//	manage createuser -username admin -password secret -staff
//	manage reindex
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/app"
	"github.com/example/blogicum/internal/config"
	"github.com/example/blogicum/internal/logging"
)

const usage = `usage: manage <command> [flags]

commands:
  migrate      create or update the database schema
  createuser   add a user account (-username, -email, -password, -staff)
  reindex      rebuild the search index from the database
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(os.Args[1:], cfg, logger, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func run(args []string, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "migrate":
		return withApp(cfg, logger, func(a *app.Application) error {
			if err := a.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(out, "schema is up to date")
			return nil
		})
	case "createuser":
		return createUser(args, cfg, logger, out)
	case "reindex":
		return withApp(cfg, logger, func(a *app.Application) error {
			if a.Search == nil {
				return errors.New("ELASTICSEARCH_ADDR is not set")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			n, err := a.Services.Posts.Reindex(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "indexed %d posts\n", n)
			return nil
		})
	default:
		return errUsage
	}
}

func createUser(args []string, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	staff := fs.Bool("staff", false, "grant access to /manage")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || *password == "" {
		return errUsage
	}

	return withApp(cfg, logger, func(a *app.Application) error {
		u, err := a.Services.Accounts.CreateUser(context.Background(), *username, *email, *password, *staff)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(out, "created user %s (id %d, staff=%t)\n", u.Username, u.ID, u.IsStaff)
		return nil
	})
}

func withApp(cfg *config.Config, logger zerolog.Logger, fn func(*app.Application) error) error {
	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

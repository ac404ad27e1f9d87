package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/config"
	"textbookexchange/backend/internal/mail"
	"textbookexchange/backend/internal/storage"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  verify <email>                     mark an account as verified
  grant <email> <role>               give an account a role (e.g. admin)
  purge-unverified [--older-than d]  delete accounts never verified
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	olderThan := flags.Duration("older-than", 24*time.Hour, "minimum age of unverified accounts to purge")
	flags.Usage = func() { fmt.Fprint(out, usage) }
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		flags.Usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	// Redis is not needed by any admin command.
	store := storage.NewStorageService(db, nil)

	return dispatch(context.Background(), store, log, flags.Args(), *olderThan, out)
}

// adminStore is what the admin commands need from storage.
type adminStore interface {
	account.Store
	AddUserRole(ctx context.Context, email, role string) error
}

func dispatch(ctx context.Context, store adminStore, log *slog.Logger, args []string, olderThan time.Duration, out io.Writer) error {
	switch args[0] {
	case "verify":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin verify <email>")
		}
		email := account.NormalizeEmail(args[1])
		user, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := store.MarkUserVerified(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "User %s has been verified.\n", email)

	case "grant":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin grant <email> <role>")
		}
		email := account.NormalizeEmail(args[1])
		if err := store.AddUserRole(ctx, email, args[2]); err != nil {
			return err
		}
		fmt.Fprintf(out, "User %s now has role %s.\n", email, args[2])

	case "purge-unverified":
		// The purge never touches tokens or mail, so they stay unset.
		accounts := account.NewService(store, (*auth.TokenService)(nil), (*mail.LogMailer)(nil), log, account.Options{})
		deleted, err := accounts.PurgeUnverified(ctx, olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d unverified account(s).\n", deleted)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

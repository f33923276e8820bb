// Command mistakebook_cli is the local-mode maintenance tool: it runs the
// same persistence facade the application uses, over either the embedded
// store or a remote API, and exposes account, stats and backup operations.
//
// Usage:
//
//	mistakebook_cli --username u --password p [--register] <command>
//
// Commands: stats | export <file> | import <file>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mistakebook/mistakebook/internal/backends/local"
	"github.com/mistakebook/mistakebook/internal/backends/remote"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/core/services"
	"github.com/mistakebook/mistakebook/internal/models"
	"github.com/mistakebook/mistakebook/internal/platform/config"
	"github.com/mistakebook/mistakebook/internal/repositories/database/sqlite"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	username := pflag.String("username", "", "account username")
	password := pflag.String("password", "", "account password")
	nickname := pflag.String("nickname", "", "nickname for --register")
	register := pflag.Bool("register", false, "create the account instead of logging in")
	dbPath := pflag.String("db", "", "sqlite database path (overrides SQLITE_PATH)")
	remoteURL := pflag.String("remote", "", "use the remote API at this base URL instead of the local store")
	pflag.Parse()

	if err := run(*username, *password, *nickname, *register, *dbPath, *remoteURL, pflag.Args(), logger); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(username, password, nickname string, register bool, dbPath, remoteURL string, args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command: stats | export <file> | import <file>")
	}
	if username == "" || password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.SQLitePath
	}
	if remoteURL == "" {
		remoteURL = cfg.APIBaseURL
	}

	ctx := context.Background()

	var backend portssvc.Backend
	if remoteURL != "" {
		backend = remote.New(remoteURL)
	} else {
		store, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		localBackend := local.New(store.Questions, store.Sessions, store.Users, store.Images, store.MigrationState,
			local.WithLogger(logger))
		if err := localBackend.ImportLegacy(ctx, cfg.LegacyStorePath); err != nil {
			return fmt.Errorf("legacy import failed: %w", err)
		}
		backend = localBackend
	}

	storage := services.NewStorageService(backend, services.WithLogger(logger))

	var sess *services.Session
	if register {
		sess, err = storage.Register(ctx, username, password, nickname)
	} else {
		sess, err = storage.Login(ctx, username, password)
	}
	if err != nil {
		return err
	}

	switch args[0] {
	case "stats":
		return printStats(ctx, storage, sess)
	case "export":
		if len(args) < 2 {
			return fmt.Errorf("export needs a target file")
		}
		return exportBackup(ctx, storage, sess, args[1])
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("import needs a source file")
		}
		return importBackup(ctx, storage, sess, args[1])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printStats(ctx context.Context, storage *services.StorageService, sess *services.Session) error {
	stats, err := storage.GetStats(ctx, sess)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func exportBackup(ctx context.Context, storage *services.StorageService, sess *services.Session, path string) error {
	backup, err := storage.ExportBackup(ctx, sess)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	fmt.Printf("exported %d questions, %d sessions to %s\n", len(backup.Questions), len(backup.Sessions), path)
	return nil
}

func importBackup(ctx context.Context, storage *services.StorageService, sess *services.Session, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	var backup models.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}
	if err := storage.RestoreBackup(ctx, sess, &backup); err != nil {
		return err
	}
	fmt.Printf("imported %d questions, %d sessions from %s\n", len(backup.Questions), len(backup.Sessions), path)
	return nil
}

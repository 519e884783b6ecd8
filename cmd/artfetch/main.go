package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/mpickett/artfetch/internal/config"
	"github.com/mpickett/artfetch/internal/database"
	"github.com/mpickett/artfetch/internal/encryption"
	"github.com/mpickett/artfetch/internal/fanart"
	"github.com/mpickett/artfetch/internal/logging"
	"github.com/mpickett/artfetch/internal/secrets"
	"github.com/mpickett/artfetch/internal/watcher"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "lookup":
		err = runLookup(os.Args[2:])
	case "set-key":
		err = runSetKey()
	case "delete-key":
		err = runDeleteKey()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: artfetch <command>

commands:
  lookup <mbid>   fetch artist image URLs from fanart.tv
  set-key         store the fanart.tv personal API key
  delete-key      remove the stored API key
  help            show this message

config file: $AF_CONFIG_PATH (default artfetch.yaml)
`)
}

// app holds the wired-up services shared by all commands.
type app struct {
	cfg        *config.Config
	configPath string
	logManager *logging.Manager
	logger     *slog.Logger
	db         *sql.DB
	store      *secrets.Store
}

func setup() (*app, error) {
	configPath := os.Getenv("AF_CONFIG_PATH")
	if configPath == "" {
		configPath = "artfetch.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.NewManager(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close() //nolint:errcheck
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	encKey, err := resolveEncryptionKey(cfg, logger)
	if err != nil {
		db.Close() //nolint:errcheck
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("resolving encryption key: %w", err)
	}
	encryptor, _, err := encryption.NewEncryptor(encKey)
	if err != nil {
		db.Close() //nolint:errcheck
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	return &app{
		cfg:        cfg,
		configPath: configPath,
		logManager: logManager,
		logger:     logger,
		db:         db,
		store:      secrets.NewStore(db, encryptor),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
	a.logManager.Close() //nolint:errcheck
}

// resolveEncryptionKey returns the key from config or env, falling back
// to a key file next to the database; a missing key file is generated
// on first use so stored secrets survive restarts.
func resolveEncryptionKey(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.Encryption.Key != "" {
		return cfg.Encryption.Key, nil
	}

	keyPath := filepath.Join(filepath.Dir(cfg.Database.Path), "encryption.key")
	data, err := os.ReadFile(keyPath)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading key file: %w", err)
	}

	_, generated, err := encryption.NewEncryptor("")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(keyPath, []byte(generated+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing key file: %w", err)
	}
	logger.Info("generated new encryption key", slog.String("path", keyPath))
	return generated, nil
}

func runLookup(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: artfetch lookup <mbid>")
	}
	catalogID := args[0]

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := uuid.Parse(catalogID); err != nil {
		// MBIDs are UUIDs; anything else is almost certainly a typo,
		// but the API is the authority so the lookup proceeds.
		a.logger.Warn("catalog id is not a well-formed MBID", slog.String("catalog_id", catalogID))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Re-apply logging settings if the config file changes mid-run.
	go watcher.New(a.configPath, a.logManager, a.logger).Start(ctx)

	var client *fanart.Client
	if a.cfg.Fanart.BaseURL != "" {
		client = fanart.NewWithBaseURL(a.store, a.logger, a.cfg.Fanart.BaseURL)
	} else {
		client = fanart.New(a.store, a.logger)
	}

	res, err := client.Lookup(ctx, catalogID)
	if err != nil {
		return fmt.Errorf("lookup interrupted: %w", err)
	}

	switch res.Status {
	case fanart.StatusFound:
		out, err := json.MarshalIndent(res.Images, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding images: %w", err)
		}
		fmt.Println(string(out))
		return nil
	case fanart.StatusNotFound:
		fmt.Println("no images found")
		return nil
	default:
		return fmt.Errorf("%s", res.Message)
	}
}

func runSetKey() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	has, err := a.store.HasSecret(ctx, fanart.APIKeyName)
	if err != nil {
		return err
	}
	if has {
		fmt.Println("replacing the existing key")
	}

	fmt.Print("fanart.tv API key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("empty key")
	}

	if err := a.store.SetSecret(ctx, fanart.APIKeyName, key); err != nil {
		return err
	}
	fmt.Println("key stored")
	return nil
}

func runDeleteKey() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.DeleteSecret(context.Background(), fanart.APIKeyName); err != nil {
		return err
	}
	fmt.Println("key deleted")
	return nil
}

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/auth"
	"github.com/desertthunder/bookshelf/internal/catalog"
	"github.com/desertthunder/bookshelf/internal/repositories"
	"github.com/desertthunder/bookshelf/internal/server"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// DiscogsClient is the remote API plus the OAuth 1.0a provider surface.
type DiscogsClient interface {
	services.Discogs
	auth.Provider
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config          *shared.Config
	db              *sql.DB
	ownsDB          bool
	discogs         DiscogsClient
	logger          *log.Logger
	output          io.Writer
	openBrowser     func(string) error
	callbackTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	// DB is opened from Config.Database.Path on first use when nil.
	DB *sql.DB
	// Discogs is built from Config.Discogs when nil and the integration is configured.
	Discogs         DiscogsClient
	Logger          *log.Logger
	Output          io.Writer
	OpenBrowser     func(string) error
	CallbackTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.CallbackTimeout <= 0 {
		opts.CallbackTimeout = 5 * time.Minute
	}

	return &Runner{
		config:          opts.Config,
		db:              opts.DB,
		discogs:         opts.Discogs,
		logger:          opts.Logger,
		output:          opts.Output,
		openBrowser:     opts.OpenBrowser,
		callbackTimeout: opts.CallbackTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, migrateCommand, discogsCommand, syncCommand, playlistsCommand, tokenCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens and migrates the configured database once.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.ownsDB = true
	return db, nil
}

// Close releases the database handle if the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownsDB = nil, false
	return err
}

// deps wires repositories and, when configured, the Discogs collaborators.
func (r *Runner) deps() (server.Deps, error) {
	db, err := r.database()
	if err != nil {
		return server.Deps{}, err
	}

	deps := server.Deps{
		Config:    r.config,
		Logger:    r.logger,
		Verifier:  auth.NewTokenVerifier(r.config.Auth.JWTSecret),
		Users:     repositories.NewUserRepository(db),
		Releases:  repositories.NewReleaseRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Tracks:    repositories.NewPlaylistTrackRepository(db),
	}

	if r.config.DiscogsPartiallyConfigured() {
		r.logger.Warn("discogs integration is partially configured; consumer key, consumer secret and state encryption key are all required")
	}
	if !r.config.DiscogsConfigured() {
		return deps, nil
	}

	codec, err := auth.NewStateCodec(r.config.Discogs.StateEncryptionKey)
	if err != nil {
		return server.Deps{}, err
	}

	client := r.discogs
	if client == nil {
		client = services.NewDiscogsService(r.config.Discogs, r.logger)
		r.discogs = client
	}

	deps.Discogs = client
	deps.Handshake = auth.NewHandshake(client, codec)
	deps.Sync = tasks.NewSyncEngine(deps.Users, client, deps.Releases, r.logger)
	deps.Catalog = catalog.New(client, r.config.Cache)
	return deps, nil
}

// discogsDeps is deps for commands that cannot run without the integration.
func (r *Runner) discogsDeps() (server.Deps, error) {
	deps, err := r.deps()
	if err != nil {
		return deps, err
	}
	if deps.Discogs == nil {
		return deps, fmt.Errorf("%w: set DISCOGS_CONSUMER_KEY, DISCOGS_CONSUMER_SECRET and STATE_ENCRYPTION_KEY", shared.ErrNotConfigured)
	}
	return deps, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

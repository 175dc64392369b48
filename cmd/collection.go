package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/auth"
	"github.com/desertthunder/bookshelf/internal/formatter"
	"github.com/desertthunder/bookshelf/internal/server"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// Sync mirrors the user's Discogs collection, printing progress as it goes.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	useJSON := cmd.Bool("json")

	deps, err := r.discogsDeps()
	if err != nil {
		return err
	}
	defer r.Close()

	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if useJSON {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			if update.Phase == tasks.Complete {
				continue
			}
			r.writePlain("→ [%s] %s\n", update.Phase, update.Message)
		}
	}()

	summary, err := deps.Sync.Sync(ctx, userID, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(summary, true)
	}

	r.writePlainHeader("Sync complete")
	r.writePlain("Added:   %d\n", summary.Added)
	r.writePlain("Updated: %d\n", summary.Updated)
	r.writePlain("Removed: %d\n", summary.Removed)
	r.writePlain("Skipped: %d\n", summary.Skipped)
	return r.writePlain("Total:   %d\n", summary.Total)
}

// PlaylistExport renders one playlist to stdout or a file.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	deps, err := r.deps()
	if err != nil {
		return err
	}
	defer r.Close()

	pl, err := server.PlaylistWithTracks(ctx, deps, cmd.String("user"), cmd.String("id"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		return formatter.WriteExport(r.output, pl, format)
	}

	path, err := formatter.WriteExportFile(pl, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("playlist exported", "playlist", pl.ID, "path", path)
	return r.writePlain("✓ Exported %q (%d tracks) to %s\n", pl.Name, len(pl.Tracks), path)
}

// Token prints a signed bearer token for the given user.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	if r.config.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret (JWT_SECRET) is required to sign tokens", shared.ErrMissingConfig)
	}

	ttl := cmd.Duration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", shared.ErrInvalidArgument)
	}

	token, err := auth.NewTokenVerifier(r.config.Auth.JWTSecret).Sign(cmd.String("user"), cmd.String("email"), ttl)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/server"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// DiscogsConnect runs the three-legged flow against a throwaway callback listener on the server address.
func (r *Runner) DiscogsConnect(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")

	deps, err := r.discogsDeps()
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := deps.Users.Ensure(ctx, userID, ""); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", r.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen for the OAuth callback: %w", err)
	}
	callbackURL := "http://" + callbackHost(listener.Addr()) + "/callback"

	start, err := deps.Handshake.Begin(ctx, callbackURL)
	if err != nil {
		listener.Close()
		return err
	}
	requestToken, err := server.RequestTokenFromURL(start.AuthorizationURL)
	if err != nil {
		listener.Close()
		return err
	}

	oauthHandler := server.NewOAuthHandler(requestToken)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("waiting for the Discogs callback at %v", callbackURL)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Discogs authorization...\n")
	if err := r.openBrowser(start.AuthorizationURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", start.AuthorizationURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", r.callbackTimeout)

	timeout := time.NewTimer(r.callbackTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: no callback within %v", shared.ErrExpiredState, r.callbackTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	cred, err := deps.Handshake.Connect(ctx, result.Verifier, start.State)
	if err != nil {
		return err
	}

	user, err := deps.Users.SetCredential(ctx, userID, cred, time.Now().UTC())
	if err != nil {
		return err
	}

	r.logger.Info("discogs account connected", "user", user.ID, "username", cred.Username)
	return r.writePlain("✓ Connected Discogs account %s to user %s\n", cred.Username, user.ID)
}

// DiscogsStatus reports whether the user has a stored credential.
func (r *Runner) DiscogsStatus(ctx context.Context, cmd *cli.Command) error {
	user, err := r.user(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if user.Credential == nil {
		return r.writePlain("✗ User %s has no Discogs account linked\n", user.ID)
	}

	r.writePlain("✓ User %s is linked to Discogs account %s\n", user.ID, user.Credential.Username)
	if user.ConnectedAt != nil {
		r.writePlain("Connected at: %s\n", user.ConnectedAt.Local().Format(time.RFC1123))
	}
	return nil
}

// DiscogsDisconnect clears the stored credential. The token is not revoked on Discogs.
func (r *Runner) DiscogsDisconnect(ctx context.Context, cmd *cli.Command) error {
	deps, err := r.deps()
	if err != nil {
		return err
	}
	defer r.Close()

	user, err := deps.Users.ClearCredential(ctx, cmd.String("user"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Discogs account unlinked from user %s\n", user.ID)
}

func (r *Runner) user(ctx context.Context, id string) (*models.User, error) {
	deps, err := r.deps()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return deps.Users.Get(ctx, id)
}

// callbackHost turns a listener address into something a browser can reach.
func callbackHost(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

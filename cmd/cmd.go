// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Local user id (the JWT subject)",
		Required: true,
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and storage",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, open the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Inspect or roll back schema migrations",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List migrations and when they were applied",
				Action: r.MigrateStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateRollback,
			},
		},
	}
}

// discogsCommand handles the Discogs account link
func discogsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discogs",
		Usage: "Discogs account operations",
		Commands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Authorize a Discogs account in the browser and store the credential",
				Flags:  []cli.Flag{userFlag()},
				Action: r.DiscogsConnect,
			},
			{
				Name:   "status",
				Usage:  "Show whether a Discogs account is linked",
				Flags:  []cli.Flag{userFlag()},
				Action: r.DiscogsStatus,
			},
			{
				Name:   "disconnect",
				Usage:  "Forget the stored Discogs credential",
				Flags:  []cli.Flag{userFlag()},
				Action: r.DiscogsDisconnect,
			},
		},
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror a user's Discogs collection into the local database",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export a playlist as CSV or Markdown",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv or markdown",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a bearer token for local development",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{
				Name:  "email",
				Usage: "Email claim",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: r.Token,
	}
}

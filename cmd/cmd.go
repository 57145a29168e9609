// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	names := make([]string, 0, len(formatter.Formats))
	for _, f := range formatter.Formats {
		names = append(names, string(f))
	}

	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (" + strings.Join(names, ", ") + ")",
		Value:   string(formatter.FormatText),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the listing to a file instead of stdout (\"-\" picks a default name)",
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   configPath,
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a configuration file pointing at a platform API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   configPath,
					},
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Platform API origin, e.g. https://notebooks.example.com/api",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Static bearer token for deployments that issue API tokens",
					},
					&cli.BoolFlag{
						Name:  "no-auth",
						Usage: "Mark the deployment as not enforcing authentication",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the platform session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
						Sources: cli.EnvVars("NBX_USERNAME"),
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password; read from stdin when omitted",
						Sources: cli.EnvVars("NBX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session and forget the stored identity",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Resolve the session the way the dashboard does on startup",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "whoami",
				Usage: "Ask the platform who the current session belongs to",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}

// homeCommand lists the landing page of the logged in role.
func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "home",
		Aliases: []string{"ls"},
		Usage:   "List notebooks (admins) or modules (learners)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Home,
	}
}

// artifactsCommand handles artifact listing and watching
func artifactsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "artifacts",
		Aliases: []string{"art"},
		Usage:   "Inspect generated artifacts of a notebook",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the artifacts of a notebook",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "notebook"},
				},
				Flags:  []cli.Flag{formatFlag(), outputFlag()},
				Action: r.ArtifactsList,
			},
			{
				Name:      "watch",
				Usage:     "Poll notebooks until no podcast is generating",
				ArgsUsage: "NOTEBOOK [NOTEBOOK...]",
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.ArtifactsWatch,
			},
		},
	}
}

// generateCommand triggers artifact generation
func generateCommand(r *Runner) *cli.Command {
	watchFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Keep polling the notebook until generation finishes",
		}
	}
	instructionsFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "instructions",
			Usage: "Extra instructions for the generator",
		}
	}

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate podcasts and quizzes from notebooks",
		Commands: []*cli.Command{
			{
				Name:  "podcast",
				Usage: "Generate a podcast episode",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "notebook"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Episode name",
					},
					&cli.StringFlag{
						Name:  "episode-profile",
						Usage: "Episode profile configured on the platform",
					},
					&cli.StringFlag{
						Name:  "speaker-profile",
						Usage: "Speaker profile configured on the platform",
					},
					instructionsFlag(),
					watchFlag(),
				},
				Action: r.GeneratePodcast,
			},
			{
				Name:  "quiz",
				Usage: "Generate a quiz",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "notebook"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "questions",
						Aliases: []string{"n"},
						Usage:   "Number of questions",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "difficulty",
						Usage: "Quiz difficulty (easy, medium, hard)",
					},
					instructionsFlag(),
					watchFlag(),
				},
				Action: r.GenerateQuiz,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/nbx-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/pawgraph/config"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cfg).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Environment configuration supplies the flag defaults.
func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "pawgraph",
		Usage: "Local social graph store for pet posts, likes, saves, comments and follows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   cfg.DB,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "feed",
				Usage:  "Show the newest posts",
				Action: feedCommand,
				Flags: []cli.Flag{
					actingUserFlag(false),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of posts",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Feed hydration workers (0 uses the number of CPUs)",
						Value: cfg.FeedWorkers,
					},
				},
			},
			{
				Name:   "like",
				Usage:  "Toggle a like on a post, or on a comment with --comment",
				Action: likeCommand,
				Flags: []cli.Flag{
					actingUserFlag(true),
					postFlag(false),
					&cli.Uint64Flag{Name: "comment", Aliases: []string{"c"}, Usage: "Comment ID"},
				},
			},
			{
				Name:   "save",
				Usage:  "Toggle a saved post",
				Action: saveCommand,
				Flags:  []cli.Flag{actingUserFlag(true), postFlag(true)},
			},
			{
				Name:   "follow",
				Usage:  "Toggle following a user",
				Action: followCommand,
				Flags:  []cli.Flag{actingUserFlag(true), userFlag()},
			},
			{
				Name:   "comment",
				Usage:  "Add a comment to a post",
				Action: commentCommand,
				Flags: []cli.Flag{
					actingUserFlag(true),
					postFlag(true),
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Comment text",
						Required: true,
					},
				},
			},
			{
				Name:   "comments",
				Usage:  "Show the comments of a post",
				Action: commentsCommand,
				Flags:  []cli.Flag{actingUserFlag(false), postFlag(true)},
			},
			{
				Name:   "profile",
				Usage:  "Show a user's profile",
				Action: profileCommand,
				Flags:  []cli.Flag{actingUserFlag(false), userFlag()},
			},
			{
				Name:   "reconcile",
				Usage:  "Recount post and comment counters from the relations",
				Action: reconcileCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: cfg.ReconcileBatch,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per record on transaction conflicts",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 100 * time.Millisecond,
					},
				},
			},
		},
	}
}

// actingUserFlag and friends build a fresh flag per command.
func actingUserFlag(required bool) cli.Flag {
	usage := "ID of the acting user (0 is anonymous)"
	if required {
		usage = "ID of the acting user"
	}
	return &cli.Uint64Flag{
		Name:     "as",
		Usage:    usage,
		Required: required,
	}
}

func postFlag(required bool) cli.Flag {
	return &cli.Uint64Flag{
		Name:     "post",
		Aliases:  []string{"p"},
		Usage:    "Post ID",
		Required: required,
	}
}

func userFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User ID",
		Required: true,
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

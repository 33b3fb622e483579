package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"render-ranker/config"
	telegram "render-ranker/internal/api"
	app "render-ranker/internal/application"
	"render-ranker/internal/container"
	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
	"render-ranker/internal/infrastructure/metrics"
	"render-ranker/internal/infrastructure/storage"
)

const dirMode = 0o700

func newApp(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "render-ranker",
		Usage:   "Score and rank rendered images",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Path to the SQLite score database", Value: cfg.DBPath},
			&cli.StringFlag{Name: "log-level", Usage: "Log level [debug, info, warn, error]", Value: cfg.LogLevel},
			&cli.StringFlag{Name: "format", Usage: "Output format [json, yaml]", Value: formatJSON},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address (e.g. :9100)", Value: cfg.MetricsAddr},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			scoreCmd(),
			rankCmd(cfg),
			bestCmd(),
			watchCmd(cfg),
			publishCmd(cfg),
			payloadCmd(),
			botCmd(cfg),
		},
	}
}

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Print the score breakdown of each image",
		ArgsUsage: "PATH...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Usage: "Record scores in the database"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one image path is required")
			}

			c, cleanup, err := buildContainer(ctx, cmd, cmd.Bool("save"))
			if err != nil {
				return err
			}
			defer cleanup()

			recs := make([]*entity.ScoreRecord, 0, len(paths))
			var failed int
			for _, path := range paths {
				rec, err := c.ScoringService.ScoreFile(ctx, path)
				if err != nil {
					failed++
					log.Error().Err(err).Str("path", path).Msg("score failed")
					continue
				}
				recs = append(recs, rec)
			}

			if err := printOutput(os.Stdout, cmd.String("format"), recs); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images could not be scored", failed, len(paths))
			}
			return nil
		},
	}
}

func rankCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "rank",
		Usage:     "Rank a batch of candidate images, best first",
		ArgsUsage: "[PATH...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Rank every image under this directory"},
			&cli.IntFlag{Name: "workers", Usage: "Images scored in parallel", Value: cfg.Workers},
			&cli.BoolFlag{Name: "fail-fast", Usage: "Abort the batch on the first unreadable image"},
			&cli.IntFlag{Name: "top", Usage: "Print only the N best candidates (0 = all)"},
			&cli.BoolFlag{Name: "save", Usage: "Record scores in the database"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if dir := cmd.String("dir"); dir != "" {
				found, err := app.CollectImages(dir)
				if err != nil {
					return err
				}
				paths = append(paths, found...)
			}
			if len(paths) == 0 {
				return errors.New("no images to rank (pass paths or --dir)")
			}

			c, cleanup, err := buildContainer(ctx, cmd, cmd.Bool("save"))
			if err != nil {
				return err
			}
			defer cleanup()

			ranking, err := c.ScoringService.Rank(ctx, paths, app.RankOptions{
				Workers:  cmd.Int("workers"),
				FailFast: cmd.Bool("fail-fast"),
				Save:     cmd.Bool("save"),
			})
			if err != nil {
				return err
			}

			return printOutput(os.Stdout, cmd.String("format"), &entity.Ranking{
				Candidates: ranking.Top(cmd.Int("top")),
				Failures:   ranking.Failures,
			})
		},
	}
}

func bestCmd() *cli.Command {
	return &cli.Command{
		Name:  "best",
		Usage: "List the best recorded scores",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "since", Usage: "Only scores recorded within this window", Value: 24 * time.Hour},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of records", Value: 10},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, cleanup, err := buildContainer(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			recs, err := c.ScoringService.Best(ctx, time.Now().Add(-cmd.Duration("since")), cmd.Int("limit"))
			if err != nil {
				return err
			}
			return printOutput(os.Stdout, cmd.String("format"), recs)
		},
	}
}

func watchCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Score frames as the renderer reports them on its status channel",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "payload", Usage: "Base64 render payload of the running job", Required: true},
			&cli.IntFlag{Name: "fd", Usage: "File descriptor of the status channel (0 = stdin)"},
			&cli.BoolFlag{Name: "publish", Usage: "Publish the best frame to Telegram when the channel closes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			payload, err := entity.DecodeRenderPayload(cmd.String("payload"))
			if err != nil {
				return err
			}

			status, err := openStatus(cmd.Int("fd"))
			if err != nil {
				return err
			}
			defer status.Close()

			c, cleanup, err := buildContainer(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := c.WatchService.Watch(ctx, payload, status, func(rec *entity.ScoreRecord) {
				log.Info().Int("frame", rec.Frame).Float64("score", rec.Breakdown.Score).Msg("frame scored")
			})
			if err != nil {
				return err
			}

			if cmd.Bool("publish") && summary.Best != nil {
				pub, err := newPublisher(cfg)
				if err != nil {
					return err
				}
				if err := pub.Publish(ctx, summary.Best); err != nil {
					return err
				}
			}
			return printOutput(os.Stdout, cmd.String("format"), summary)
		},
	}
}

// openStatus открывает канал статусов рендера: stdin при fd <= 0, иначе унаследованный дескриптор.
func openStatus(fd int) (io.ReadCloser, error) {
	if fd <= 0 {
		return io.NopCloser(os.Stdin), nil
	}
	f := os.NewFile(uintptr(fd), "render-status")
	if _, err := f.Stat(); err != nil {
		return nil, fmt.Errorf("status file descriptor %d: %w", fd, err)
	}
	return f, nil
}

func publishCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Publish the best recorded render to Telegram",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "since", Usage: "Pick from scores recorded within this window", Value: 24 * time.Hour},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, cleanup, err := buildContainer(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			recs, err := c.ScoringService.Best(ctx, time.Now().Add(-cmd.Duration("since")), 1)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				return errors.New("no scored renders in the selected window")
			}

			pub, err := newPublisher(cfg)
			if err != nil {
				return err
			}
			return pub.Publish(ctx, recs[0])
		},
	}
}

func payloadCmd() *cli.Command {
	return &cli.Command{
		Name:  "payload",
		Usage: "Inspect render payloads",
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a base64 render payload",
				ArgsUsage: "PAYLOAD",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("exactly one payload is required")
					}
					payload, err := entity.DecodeRenderPayload(cmd.Args().First())
					if err != nil {
						return err
					}
					return printOutput(os.Stdout, cmd.String("format"), payload)
				},
			},
		},
	}
}

func botCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Run the Telegram scoring bot",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			c, cleanup, err := buildContainer(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			bot, err := telegram.NewBot(cfg.TelegramToken, c.SessionService, c.ScoringService)
			if err != nil {
				return fmt.Errorf("create bot: %w", err)
			}

			log.Info().Msg("bot is running")
			return bot.Run(ctx)
		},
	}
}

// buildContainer собирает зависимости команды. Хранилище открывается только при withStore.
func buildContainer(ctx context.Context, cmd *cli.Command, withStore bool) (*container.Container, func(), error) {
	var (
		scores  port.ScoreRepository
		closers []func() error
	)

	if withStore {
		path := cmd.String("db")
		if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
		repo, err := storage.NewSQLiteScoreRepository(path)
		if err != nil {
			return nil, nil, err
		}
		scores = repo
		closers = append(closers, repo.Close)
	}

	registry := metrics.NewRegistry()
	if addr := cmd.String("metrics-addr"); addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		closers = append(closers, func() error { cancel(); return nil })
		go func() {
			if err := registry.Serve(metricsCtx, addr); err != nil {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("cleanup")
			}
		}
	}

	return container.New(scores, storage.NewMemorySessionRepository(), registry), cleanup, nil
}

func newPublisher(cfg *config.Config) (*telegram.Publisher, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is required to publish")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", err)
	}
	return telegram.NewPublisher(api, cfg.TelegramChatID), nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/engine"
	"yatube/internal/media"
	"yatube/internal/utils"
	"yatube/simulator"

	"github.com/lmittmann/tint"
)

func main() {
	simConfig := simulator.DefaultConfig()
	flag.IntVar(&simConfig.NumUsers, "users", simConfig.NumUsers, "number of users")
	flag.IntVar(&simConfig.NumGroups, "groups", simConfig.NumGroups, "number of groups")
	flag.IntVar(&simConfig.PostsPerUser, "posts", simConfig.PostsPerUser, "average posts per user")
	flag.IntVar(&simConfig.FollowsPerUser, "follows", simConfig.FollowsPerUser, "follow attempts per user")
	flag.IntVar(&simConfig.CommentsPerPost, "comments", simConfig.CommentsPerPost, "average comments per post")
	flag.Float64Var(&simConfig.ZipfS, "zipf", simConfig.ZipfS, "zipf parameter for author popularity, > 1")
	flag.IntVar(&simConfig.Workers, "workers", simConfig.Workers, "concurrent workers")
	flag.Int64Var(&simConfig.Seed, "seed", simConfig.Seed, "random seed")
	timeout := flag.Duration("timeout", 10*time.Minute, "maximum simulation time")
	flag.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, simConfig); err != nil {
		slog.Error("simulator: failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, simConfig simulator.Config) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database.Type, cfg.Database.URI)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	var mediaStore media.Store
	if cfg.Media.Backend == config.MediaGridFS {
		mediaStore, err = media.NewGridFSStore(ctx, cfg.Media.MongoURI, cfg.Media.MongoDatabase)
	} else {
		mediaStore, err = media.NewFileStore(cfg.Media.Root)
	}
	if err != nil {
		return err
	}
	defer mediaStore.Close(context.Background())

	slog.Info("simulator: starting",
		"database", cfg.Database.Type,
		"users", simConfig.NumUsers,
		"groups", simConfig.NumGroups,
		"posts_per_user", simConfig.PostsPerUser,
		"follows_per_user", simConfig.FollowsPerUser,
		"comments_per_post", simConfig.CommentsPerPost,
		"zipf", simConfig.ZipfS,
		"seed", simConfig.Seed,
	)

	eng := engine.NewEngine(engine.NewStores(db), mediaStore, utils.NewMetricsCollector())
	summary, err := simulator.New(simConfig, eng).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nSimulation completed in %v\n", summary.Duration.Round(time.Millisecond))
	fmt.Printf("- Users:             %d\n", summary.Users)
	fmt.Printf("- Groups:            %d\n", summary.Groups)
	fmt.Printf("- Posts:             %d\n", summary.Posts)
	fmt.Printf("- Comments:          %d\n", summary.Comments)
	fmt.Printf("- Follows:           %d\n", summary.Follows)
	fmt.Printf("- Duplicate follows: %d\n", summary.DuplicateFollows)
	fmt.Printf("- Self follows:      %d\n", summary.SelfFollows)
	fmt.Printf("- Failures:          %d\n", summary.Failures)
	fmt.Printf("Log in as user_0 with password %q.\n", simulator.Password)
	return nil
}

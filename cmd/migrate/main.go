package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	// Offline commands work on the source tree and need neither config nor DB.
	switch *cmd {
	case "create":
		path, err := migrate.Scaffold(migrate.SourceDir, *name, time.Now())
		exitOn(err, "create migration")
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(migrate.Validate(os.DirFS(migrate.SourceDir)), "validate migrations")
		fmt.Println("migration validation passed")
		return
	}

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	runner, err := migrate.NewRunner(sqlDB, migrate.Migrations(), logg)
	requireResource(ctx, logg, "migration runner", err)

	switch *cmd {
	case "up":
		exitOn(runner.Up(ctx), "migrate up")
	case "down":
		exitOn(runner.Down(ctx), "migrate down")
	case "version":
		if *version == "" {
			exitOn(fmt.Errorf("missing -version"), "migrate to version")
		}
		exitOn(runner.To(ctx, *version), "migrate to version")
	case "status":
		rows, err := runner.Status(ctx)
		exitOn(err, "migration status")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tFILE")
		for _, row := range rows {
			state := "pending"
			if row.Applied {
				state = "applied"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", row.Version, state, row.Path)
		}
		_ = w.Flush()
	default:
		exitOn(fmt.Errorf("unknown -cmd value %q", *cmd), "migrate")
	}
}

func exitOn(err error, action string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", action, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/tripseat/service-booking/internal/application"
	"github.com/tripseat/service-booking/internal/catalog"
	"github.com/tripseat/service-booking/internal/config"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	"github.com/tripseat/service-booking/internal/platform/database"
	"github.com/tripseat/service-booking/internal/platform/logger"
	"github.com/tripseat/service-booking/internal/repository"
)

var CLI struct {
	File    string `help:"Path to the route catalog file" default:"configs/routes.yaml" type:"existingfile"`
	DryRun  bool   `help:"Validate the file without writing to the database"`
	Migrate bool   `help:"Run database migrations before importing" default:"true" negatable:""`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("routeimport"),
		kong.Description("Create or update routes from a YAML catalog."),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "routeimport")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	file, err := catalog.Load(CLI.File)
	if err != nil {
		log.Fatal("failed to load catalog", zap.String("file", CLI.File), zap.Error(err))
	}
	log.Info("catalog loaded", zap.String("file", CLI.File), zap.Int("routes", len(file.Routes)))

	if CLI.DryRun {
		for _, r := range file.Routes {
			id, _ := r.RouteID()
			log.Info("would upsert route", zap.String("route_id", id.String()), zap.String("name", r.Name))
		}
		return
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if CLI.Migrate {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	routeRepo := repository.NewGormRouteRepository(db)
	service := application.NewRouteService(
		routeRepo,
		repository.NewGormCapacityLedger(db, log),
		routeDomain.NewSegmentFareCalculator(),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var created, updated, failed int
	for _, r := range file.Routes {
		id, _ := r.RouteID()
		_, isNew, err := service.UpsertRoute(ctx, id, r.Request())
		switch {
		case err != nil:
			failed++
			log.Error("failed to import route", zap.String("name", r.Name), zap.Error(err))
		case isNew:
			created++
		default:
			updated++
		}
	}

	log.Info("route import finished",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"matchmaker/cmd/buildCFG"
	"matchmaker/internal/api/api"
	"matchmaker/internal/auth"
	rabbitReader "matchmaker/internal/consumerWorker"
	"matchmaker/internal/mailer"
	"matchmaker/internal/model"
	"matchmaker/internal/rabbit"
	"matchmaker/internal/recommend"
	"matchmaker/internal/repo"
	"matchmaker/internal/service"
	"matchmaker/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	envPath := flag.String("env", ".env", "path to the env file")
	flag.Parse()

	zlog.Init()
	log := zlog.Logger

	if err := godotenv.Load(*envPath); err != nil {
		log.Warn().Err(err).Msg("no env file loaded, using process environment")
	}

	cfg := config.New()
	if err := cfg.Load(*configPath, "", ""); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, storageCfg.Options, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()
	log.Info().Str("driver", storageCfg.Driver).Msg("storage connected successfully")

	repository, err := repo.NewRepository(store, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	authCfg, err := buildCFG.BuildAuthConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth config")
	}

	var seed repo.Seed
	if storageCfg.SeedFile != "" {
		if seed, err = repo.LoadSeed(storageCfg.SeedFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load seed data")
		}
		if authCfg.SeedPassword != "" {
			if err := seedPasswords(seed.Users, authCfg.SeedPassword); err != nil {
				log.Fatal().Err(err).Msg("failed to hash seed passwords")
			}
		}
	}
	if err := repository.Initialize(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize records")
	}
	issuer, err := auth.NewIssuer(authCfg.Secret, authCfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
	}

	recCfg := buildCFG.BuildRecommendConfig(cfg, &log)
	var generator recommend.Generator
	gemini, err := recommend.NewGeminiGenerator(ctx, recCfg.APIKey, recCfg.Model)
	switch {
	case err == nil:
		generator = gemini
	case errors.Is(err, recommend.ErrNoGenerator):
	default:
		log.Error().Err(err).Msg("failed to create Gemini client, using interest matching")
	}
	recommender := recommend.NewClient(generator, &log, recCfg.Timeout)

	deps := service.Deps{
		Repo:        repository,
		Log:         &log,
		Issuer:      issuer,
		Recommender: recommender,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var reader *rabbitReader.Reader
	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	if rabbitCfg.Enabled() {
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()

		mail := mailer.New(buildCFG.BuildMailConfig(cfg, &log), &log)
		reader = rabbitReader.NewReader(rmq, repository, mail, &log)
		reader.Start(workerCtx)
		deps.Publisher = rmq
	}

	serviceInstance := service.NewService(deps)
	app := api.NewRouters(&api.Routers{Service: serviceInstance, Issuer: issuer, Mode: serverCfg.Mode})

	srv := &http.Server{Addr: ":" + serverCfg.Port, Handler: app}
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, serverCfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}

	if pg, ok := store.(*storage.Postgres); ok && storageCfg.MigrateDownOnExit && storageCfg.MigrationsDir != "" {
		log.Info().Msg("Rolling back migrations...")
		if err := pg.MigrateDown(storageCfg.MigrationsDir); err != nil {
			log.Error().Msgf("failed to rollback migrations: %v", err)
		} else {
			log.Info().Msg("Migrations rolled back successfully")
		}
	}
	log.Info().Msg("Shutdown complete")
}

func seedPasswords(users []model.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].PasswordHash == "" {
			users[i].PasswordHash = hash
		}
	}
	return nil
}

package buildCFG

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"

	"matchmaker/internal/mailer"
	"matchmaker/internal/recommend"
	"matchmaker/internal/storage"
)

type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration
}

type StorageConfig struct {
	storage.Options
	SeedFile          string
	MigrateDownOnExit bool
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func (c RabbitConfig) Enabled() bool { return c.Url != "" }

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	// SeedPassword is hashed into seeded users that carry no password hash.
	SeedPassword string
}

type RecommendConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// fromEnv prefers the environment variable env over the config key.
func fromEnv(cfg *config.Config, key, env string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return cfg.GetString(key)
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	sc := ServerConfig{
		Port:            cfg.GetString("server.port"),
		Mode:            cfg.GetString("server.mode"),
		ShutdownTimeout: cfg.GetDuration("server.shutdown_timeout"),
	}
	if sc.Port == "" {
		sc.Port = "8080"
	}
	if sc.Mode == "" {
		sc.Mode = "release"
	}
	if sc.ShutdownTimeout <= 0 {
		sc.ShutdownTimeout = 10 * time.Second
	}
	log.Info().Str("port", sc.Port).Str("mode", sc.Mode).Msg("server config loaded")
	return sc
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	sc := StorageConfig{
		Options: storage.Options{
			Driver:          cfg.GetString("storage.driver"),
			DSN:             fromEnv(cfg, "storage.dsn", "STORAGE_DSN"),
			SlaveDSNs:       cfg.GetStringSlice("storage.slave_dsns"),
			MaxOpenConns:    cfg.GetInt("storage.max_open_conns"),
			MaxIdleConns:    cfg.GetInt("storage.max_idle_conns"),
			ConnMaxLifetime: cfg.GetDuration("storage.conn_max_lifetime"),
			MigrationsDir:   cfg.GetString("storage.migrations_dir"),
			Database:        cfg.GetString("storage.database"),
			Collection:      cfg.GetString("storage.collection"),
		},
		SeedFile:          cfg.GetString("storage.seed_file"),
		MigrateDownOnExit: cfg.GetBool("storage.migrate_down_on_exit"),
	}
	if sc.Driver == "" {
		sc.Driver = storage.DriverMemory
	}
	if sc.Driver != storage.DriverMemory && sc.DSN == "" {
		return sc, fmt.Errorf("storage.dsn is required for driver %s", sc.Driver)
	}
	if sc.Driver == storage.DriverMongo && sc.Database == "" {
		sc.Database = "matchmaker"
	}
	if sc.Collection == "" {
		sc.Collection = "kv_records"
	}
	log.Info().Str("driver", sc.Driver).Msg("storage config loaded")
	return sc, nil
}

// BuildRabbitConfig returns a disabled config when rabbit.url is empty.
func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      fromEnv(cfg, "rabbit.url", "RABBIT_URL"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if !rc.Enabled() {
		log.Warn().Msg("rabbit.url is empty, notifications will not be e-mailed or scheduled")
		return rc, nil
	}
	if rc.Exchange == "" || rc.Queue == "" {
		return rc, fmt.Errorf("rabbit.exchange and rabbit.queue are required")
	}
	return rc, nil
}

func BuildMailConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("mail.host"),
		Port:     cfg.GetInt("mail.port"),
		Username: cfg.GetString("mail.username"),
		Password: fromEnv(cfg, "mail.password", "SMTP_PASSWORD"),
		From:     cfg.GetString("mail.from"),
	}
	if mc.Host == "" {
		log.Warn().Msg("mail.host is empty, e-mails will only be logged")
	}
	return mc
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	ac := AuthConfig{
		Secret:   fromEnv(cfg, "auth.jwt_secret", "JWT_SECRET"),
		TokenTTL: cfg.GetDuration("auth.token_ttl"),

		SeedPassword: fromEnv(cfg, "auth.seed_password", "SEED_PASSWORD"),
	}
	if ac.Secret == "" {
		return ac, fmt.Errorf("JWT_SECRET is not set")
	}
	log.Info().Dur("token_ttl", ac.TokenTTL).Msg("auth config loaded")
	return ac, nil
}

func BuildRecommendConfig(cfg *config.Config, log *zerolog.Logger) RecommendConfig {
	rc := RecommendConfig{
		APIKey:  fromEnv(cfg, "recommend.api_key", "API_KEY"),
		Model:   cfg.GetString("recommend.model"),
		Timeout: cfg.GetDuration("recommend.timeout"),
	}
	if rc.Model == "" {
		rc.Model = recommend.DefaultModel
	}
	if rc.Timeout <= 0 {
		rc.Timeout = 20 * time.Second
	}
	if rc.APIKey == "" {
		log.Warn().Msg("API_KEY environment variable not set. Using mock data.")
	}
	return rc
}

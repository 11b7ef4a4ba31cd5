package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/okhalil/evalboard/internal/evaluation/controller"
	"github.com/okhalil/evalboard/internal/evaluation/db"
	"github.com/okhalil/evalboard/internal/evaluation/events"
	"github.com/okhalil/evalboard/internal/evaluation/handlers"
	"github.com/okhalil/evalboard/internal/evaluation/settings"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort     int      `yaml:"HTTP_PORT"`
	DBHost       string   `yaml:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
	SettingsFile string   `yaml:"SETTINGS_FILE"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", zap.Error(err))
		}
	}()

	// The mirror producer is optional: without brokers the services run
	// with mirroring disabled.
	var producer controller.EventProducer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Warn("mirror producer unavailable, continuing without it", zap.Error(err))
		} else {
			defer kafkaProducer.Close()
			producer = kafkaProducer
		}
	}

	store, err := settings.NewStore(cfg.SettingsFile)
	if err != nil {
		logger.Fatal("failed to load settings store", zap.Error(err))
	}

	departmentSvc := controller.NewDepartmentService(repo, producer, logger)
	employeeSvc := controller.NewEmployeeService(repo, producer, logger)
	evaluationSvc := controller.NewEvaluationService(repo, producer, logger)

	handler := handlers.New(departmentSvc, employeeSvc, evaluationSvc, store, logger)
	server := handlers.NewServer(cfg.HTTPPort, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration from the config file, or a path given
// in EVALBOARD_CONFIG.
func loadConfig() (*Config, error) {
	configPath := os.Getenv("EVALBOARD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("internal", "evaluation", "config", "config.yaml")
	}
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Config{
		HTTPPort:     8080,
		SettingsFile: "settings.json",
	}
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// initDatabase initializes the database connection config.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received,
// then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}

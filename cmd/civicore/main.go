package main

import (
	"civicore/registry/accounts"
	"civicore/registry/auth"
	"civicore/registry/certnum"
	"civicore/registry/config"
	"civicore/registry/schema"
	"civicore/registry/services"
	"civicore/registry/storage"
	"civicore/utils/logging"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogmulti "github.com/samber/slog-multi"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type civicoreEnv struct {
	Port int `env:"PORT" envDefault:"5000"`

	DatabaseUri string `env:"DATABASE_URI"`
	SqlitePath  string `env:"SQLITE_PATH" envDefault:"civicore.db"`

	JwtSecret  string        `env:"JWT_SECRET,required"`
	SessionTtl time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	StorageDir string `env:"STORAGE_DIR" envDefault:"storage"`
	LogDir     string `env:"LOG_DIR"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	CertNumberMode string `env:"CERT_NUMBER_MODE" envDefault:"racy"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5000"`
	LoginRateLimit int      `env:"LOGIN_RATE_LIMIT" envDefault:"10"`

	AdminName     string `env:"ADMIN_NAME,required"`
	AdminEmail    string `env:"ADMIN_EMAIL,required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`
}

func loadEnvFile(envFile string) {
	slog.Info(fmt.Sprintf("loading env from file %v", envFile))
	err := godotenv.Load(envFile)
	if err != nil {
		log.Fatalf("error loading .env file '%v': %v", envFile, err)
	}
}

/**
 * All variables used by the server are loaded here so that it is clear which
 * settings exist and how they are passed through the system.
 */
func loadEnv() (*civicoreEnv, error) {
	cfg := &civicoreEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e *civicoreEnv) postgresDsn() string {
	parts, err := url.Parse(e.DatabaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func initLogging(logDir string, level slog.Level) (*os.File, error) {
	opts := logging.HandlerOptions(level, false)
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}

	var logFile *os.File
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0777); err != nil {
			return nil, fmt.Errorf("error creating log directory: %w", err)
		}
		var err error
		logFile, err = os.OpenFile(filepath.Join(logDir, "civicore.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(logFile, opts).WithAttrs([]slog.Attr{
			slog.String("service_type", "civicore"),
		}))
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	if logFile != nil {
		slog.Info("logging initialized", "log_file", logFile.Name(), "code", logging.SYSTEM)
	}
	return logFile, nil
}

func initDb(cfg *civicoreEnv) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DatabaseUri != "" {
		dialector = postgres.Open(cfg.postgresDsn())
	} else {
		slog.Info("DATABASE_URI not set, using sqlite", "path", cfg.SqlitePath)
		dialector = sqlite.Open(cfg.SqlitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	err = db.AutoMigrate(
		&schema.User{}, &schema.Document{}, &schema.Issuance{},
		&schema.Barangay{}, &schema.Template{}, &schema.CertSequence{},
	)
	if err != nil {
		return nil, fmt.Errorf("error migrating db schema: %w", err)
	}

	return db, nil
}

func runApp() error {
	envFile := flag.String("env", "", "File to load env variables from")
	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}

	cfg, err := loadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	logFile, err := initLogging(cfg.LogDir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	certMode, err := certnum.ParseMode(cfg.CertNumberMode)
	if err != nil {
		return err
	}

	reference, err := config.LoadReferenceData()
	if err != nil {
		return err
	}

	db, err := initDb(cfg)
	if err != nil {
		return err
	}

	err = auth.AddInitialAdmin(db, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, accounts.DefaultPermissions(schema.SuperAdmin))
	if err != nil {
		return err
	}

	civicore := services.NewCivicore(db, services.Options{
		JwtSecret:      []byte(cfg.JwtSecret),
		SessionTtl:     cfg.SessionTtl,
		CertMode:       certMode,
		Storage:        storage.NewSharedDisk(cfg.StorageDir),
		Reference:      reference,
		LoginRateLimit: cfg.LoginRateLimit,
	})
	if err := civicore.InitReferenceData(); err != nil {
		return fmt.Errorf("error seeding reference data: %w", err)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api", civicore.Routes())
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("http server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("starting server", "port", cfg.Port, "cert_number_mode", certMode, "code", logging.SYSTEM)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve returned error: %w", err)
	}

	<-idleConnsClosed
	slog.Info("server stopped")
	return nil
}

// Defers do not run after log.Fatalf, so runApp returns errors instead.
func main() {
	if err := runApp(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

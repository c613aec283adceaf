package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions and API tokens
)

type (
	Config struct {
		HTTP
		Global
		Database
		Loans
		OverdueScan
		Covers
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Loans struct {
		PeriodDays int // Loan duration, due_date = borrow_date + PeriodDays
	}

	OverdueScan struct {
		Enabled         bool
		IntervalMinutes int
	}

	Covers struct {
		Dir string // Directory for uploaded book covers
	}

	// Tasks configures the notice delivery queue runner. Per-queue retry
	// policy is fixed on the task types themselves.
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Auth struct {
		Mode            AuthMode
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		CSRFSecret      string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("loan_period_days", DefaultLoanPeriodDays)
	v.SetDefault("overdue_scan_enabled", true)
	v.SetDefault("overdue_scan_interval_minutes", 60)
	v.SetDefault("covers_dir", "./covers")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_csrf_secret", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Loans: Loans{
			PeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
		},
		OverdueScan: OverdueScan{
			Enabled:         v.GetBool("OVERDUE_SCAN_ENABLED"),
			IntervalMinutes: v.GetInt("OVERDUE_SCAN_INTERVAL_MINUTES"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFSecret:      v.GetString("AUTH_CSRF_SECRET"),
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mailcast/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host      string        `json:"host"`
	Port      int           `json:"port"`
	Username  string        `json:"username"`
	Password  string        `json:"-"`
	FromEmail string        `json:"from_email"`
	FromName  string        `json:"from_name"`
	Timeout   time.Duration `json:"timeout"`
}

type DispatchConfig struct {
	DailyLimit int           `json:"daily_limit"`
	BatchSize  int           `json:"batch_size"`
	Schedule   string        `json:"schedule"`
	SendDelay  time.Duration `json:"send_delay"`
	PassPause  time.Duration `json:"pass_pause"`
}

type Config struct {
	Environment    string         `json:"environment"`
	LogLevel       string         `json:"log_level"`
	ServerPort     string         `json:"server_port"`
	DBHost         string         `json:"db_host"`
	DBPort         string         `json:"db_port"`
	DBUser         string         `json:"db_user"`
	DBPassword     string         `json:"-"`
	DBName         string         `json:"db_name"`
	DBSSLMode      string         `json:"db_ssl_mode"`
	DBMaxIdleConns int            `json:"db_max_idle_conns"`
	DBMaxOpenConns int            `json:"db_max_open_conns"`
	SMTP           SMTPConfig     `json:"smtp"`
	Dispatch       DispatchConfig `json:"dispatch"`
	JWTSecret      string         `json:"-"`
	SentryDSN      string         `json:"-"`
	Redis          RedisConfig    `json:"redis"`
	// RateLimitTrigger is the number of manual dispatch triggers allowed per user per minute
	RateLimitTrigger int      `json:"rate_limit_trigger"`
	CORSOrigins      []string `json:"cors_origins"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

// LoadConfig fills AppConfig from the environment and validates it
func LoadConfig() error {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	AppConfig = cfg
	logConfig()
	return nil
}

// FromEnv reads the configuration without validating it
func FromEnv() Config {
	return Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "mailcast"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("SMTP_FROM_EMAIL", ""),
			FromName:  getEnv("SMTP_FROM_NAME", ""),
			Timeout:   getEnvAsDuration("SEND_TIMEOUT", 30*time.Second),
		},
		Dispatch: DispatchConfig{
			DailyLimit: getEnvAsInt("DAILY_EMAIL_LIMIT", 4000),
			BatchSize:  getEnvAsInt("BATCH_SIZE", 50),
			Schedule:   getEnv("DISPATCH_SCHEDULE", "*/10 * * * *"),
			SendDelay:  getEnvAsDuration("SEND_DELAY", 100*time.Millisecond),
			PassPause:  getEnvAsDuration("PASS_PAUSE", time.Second),
		},
		JWTSecret: getEnv("JWT_SECRET", ""),
		SentryDSN: getEnv("SENTRY_DSN", ""),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimitTrigger: getEnvAsInt("RATE_LIMIT_TRIGGER", 5),
		CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}
}

// Validate rejects configurations the service cannot run with
func (c Config) Validate() error {
	var errs []error

	// Validate required configurations
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required"))
	}
	if c.SMTP.Port <= 0 {
		errs = append(errs, errors.New("SMTP_PORT must be positive"))
	}
	if c.Dispatch.DailyLimit <= 0 {
		errs = append(errs, errors.New("DAILY_EMAIL_LIMIT must be positive"))
	}
	if c.Dispatch.BatchSize <= 0 {
		errs = append(errs, errors.New("BATCH_SIZE must be positive"))
	}
	if c.Dispatch.SendDelay < 0 || c.Dispatch.PassPause < 0 {
		errs = append(errs, errors.New("SEND_DELAY and PASS_PAUSE cannot be negative"))
	}
	if c.SMTP.Timeout <= 0 {
		errs = append(errs, errors.New("SEND_TIMEOUT must be positive"))
	}
	if c.RateLimitTrigger <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_TRIGGER must be positive"))
	}

	return errors.Join(errs...)
}

func ConnectDB() error {
	logrus.Info("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.WithField("dsn", maskPassword(dsn)).Debug("Using connection string")

	gormLogger := logger.Default.LogMode(logger.Warn)
	if AppConfig.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logrus.Info("Successfully connected to the database")
	if err := Migrate(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("Database migration completed")
	return nil
}

// CloseDB releases the connection pool
func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the tables of every model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Template{},
		&models.EmailList{},
		&models.ListContact{},
		&models.Campaign{},
		&models.EmailSend{},
		&models.DailyQuota{},
	)
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid integer in environment, using default")
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

// getEnvAsDuration accepts Go durations ("250ms") or plain milliseconds ("250")
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.WithField("key", key).Warn("Invalid duration in environment, using default")
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment": AppConfig.Environment,
		"port":        AppConfig.ServerPort,
		"database":    fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"smtp":        fmt.Sprintf("%s:%d", AppConfig.SMTP.Host, AppConfig.SMTP.Port),
		"daily_limit": AppConfig.Dispatch.DailyLimit,
		"batch_size":  AppConfig.Dispatch.BatchSize,
		"schedule":    AppConfig.Dispatch.Schedule,
		"redis":       AppConfig.Redis.Enabled,
	}).Info("Loaded configuration")
}

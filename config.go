package modgraph

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Mode     string
	ApiPort  string
	LogLevel string
	Database struct {
		Host         string
		Port         string
		User         string
		Password     string
		DatabaseName string
		SSLMode      string
	}
	JWT struct {
		Secret            string
		Expiration        int // in minutes
		RefreshExpiration int // in days
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	Nats struct {
		URL           string
		SubjectPrefix string
	}
	Compile struct {
		CacheSize     int
		CacheTTL      int // in minutes
		MaxGraphNodes int
	}
}

// DatabaseEnabled reports whether a Postgres host is configured
func (c AppConfig) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// RedisEnabled reports whether a Redis host is configured
func (c AppConfig) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// NatsEnabled reports whether a NATS url is configured
func (c AppConfig) NatsEnabled() bool {
	return c.Nats.URL != ""
}

var config AppConfig

// LoadConfig reads the environment (optionally seeded from envfile) without
// connecting to any backend.
func LoadConfig(envfile string) AppConfig {
	if envfile != "" {
		if err := godotenv.Load(envfile); err != nil {
			log.Printf("%s not loaded, using process environment: %s", envfile, err)
		}
	}

	var cfg AppConfig
	cfg.Mode = GetEnv("RUN_MODE", "prod")
	cfg.ApiPort = GetEnv("API_PORT", ":8080")
	cfg.LogLevel = GetEnv("LOG_LEVEL", "info")

	cfg.Database.Host = GetEnv("DB_HOSTNAME", "")
	cfg.Database.Port = GetEnv("DB_PORT", "5432")
	cfg.Database.User = GetEnv("DB_USERNAME", "")
	cfg.Database.Password = GetEnv("DB_PASSWORD", "")
	cfg.Database.DatabaseName = GetEnv("DB_NAME", "modgraph")
	cfg.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")

	cfg.JWT.Secret = GetEnv("JWT_SECRET", "")
	cfg.JWT.Expiration = getIntEnvOrDefault("JWT_EXPIRATION_MINUTES", 60)
	cfg.JWT.RefreshExpiration = getIntEnvOrDefault("JWT_REFRESH_EXPIRATION_DAYS", 30)

	cfg.Redis.Host = GetEnv("REDIS_HOST", "")
	cfg.Redis.Port = GetEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntEnvOrDefault("REDIS_DB", 0)

	cfg.Nats.URL = GetEnv("NATS_URL", "")
	cfg.Nats.SubjectPrefix = GetEnv("NATS_SUBJECT_PREFIX", "modgraph")

	cfg.Compile.CacheSize = getIntEnvOrDefault("COMPILE_CACHE_SIZE", 256)
	cfg.Compile.CacheTTL = getIntEnvOrDefault("COMPILE_CACHE_TTL_MINUTES", 60)
	cfg.Compile.MaxGraphNodes = getIntEnvOrDefault("COMPILE_MAX_NODES", 5000)

	if cfg.DatabaseEnabled() && cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set when a database is configured")
	}
	return cfg
}

// InitConfig loads the configuration and connects to every configured
// backend.
func InitConfig(envfile string) {
	config = LoadConfig(envfile)

	Logger = initLogger(config.LogLevel)
	if config.DatabaseEnabled() {
		DB = connectToPostgres(config.Database.Host, config.Database.User, config.Database.Password, config.Database.DatabaseName, config.Database.Port, config.Database.SSLMode)
	}
	if config.RedisEnabled() {
		Redis = connectToRedis(config.Redis.Host, config.Redis.Port, config.Redis.Password, config.Redis.DB)
	}
	if config.NatsEnabled() {
		Nats = connectToNats(config.Nats.URL)
	}
}

func GetConfig() AppConfig {
	return config
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	logLevel := logger.Error
	if getBoolEnv("DB_LOG_QUERIES", false) {
		logLevel = logger.Info
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold: 0,
					LogLevel:      logLevel,
				},
			),
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now()
			},
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			}}); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

func initLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Caller().Logger()
}

// NewConsoleLogger returns a logger with the server's console format, for
// tools that do not call InitConfig.
func NewConsoleLogger(level string) zerolog.Logger {
	return initLogger(level)
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

func connectToNats(url string) *nats.Conn {
	nc, err := nats.Connect(url,
		nats.Name("modgraph"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to NATS: %v", err))
	}
	return nc
}

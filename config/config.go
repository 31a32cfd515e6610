package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the env-driven service settings.
type Config struct {
	// Database
	DBUser               string
	DBPassword           string
	DBHost               string
	DBPort               string
	DBName               string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	DBPingMaxWaitSec     int

	// Server
	Port string

	// Security
	AdminAPIKey string

	// Engine
	ReportValidityWindow time.Duration
	CycleLength          time.Duration
}

// Load reads configuration from the environment, with a .env file as a
// development convenience.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBUser:               getEnv("DB_USER", "root"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBName:               getEnv("DB_NAME", "gasph"),
		DBMaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
		DBPingMaxWaitSec:     getEnvInt("DB_PING_MAX_WAIT_SEC", 60),
		Port:                 getEnv("PORT", "8080"),
		AdminAPIKey:          getEnv("ADMIN_API_KEY", ""),
		ReportValidityWindow: time.Duration(getEnvInt("REPORT_VALIDITY_HOURS", 24)) * time.Hour,
		CycleLength:          time.Duration(getEnvInt("CYCLE_DAYS", 7)) * 24 * time.Hour,
	}

	if cfg.AdminAPIKey == "" {
		log.Printf("WARNING: ADMIN_API_KEY not configured. Cycle reset and price import endpoints will reject all requests.")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DBDriver    string
	MySQLDSN    string
	SQLitePath  string
	ResetDB     bool
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string

	UploadDir      string
	MaxUploadBytes int64
	PublicBaseURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	LoanDays            int
	MaxLoanDays         int
	FinePerDay          decimal.Decimal
	MaxFine             decimal.Decimal
	OverdueScanInterval time.Duration

	CORSOrigins       []string
	AuthRatePerMinute int
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/pedbook?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLitePath:  getEnv("SQLITE_PATH", "pedbook.db"),
		ResetDB:     getEnvBool("RESET_DB", false),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 5)) << 20,
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "PedBook <no-reply@pedbook.local>"),

		LoanDays:            getEnvInt("LOAN_DAYS", 14),
		MaxLoanDays:         getEnvInt("MAX_LOAN_DAYS", 60),
		FinePerDay:          getEnvDecimal("FINE_PER_DAY", decimal.RequireFromString("0.50")),
		MaxFine:             getEnvDecimal("MAX_FINE", decimal.Zero),
		OverdueScanInterval: getEnvDuration("OVERDUE_SCAN_INTERVAL", 24*time.Hour),

		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 20),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

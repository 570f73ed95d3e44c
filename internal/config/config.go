package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string

	LogLevel  string
	LogFormat string

	// 每日推荐轮换
	DailyPickInterval    time.Duration
	DailyPickMaxAttempts int

	// 联系表单邮件
	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPPassword     string
	ContactRecipient string
}

// Load 加载配置
func Load() *Config {
	expiryHours := getEnvInt("JWT_EXPIRY_HOURS", 72)
	pickHours := getEnvInt("DAILY_PICK_INTERVAL_HOURS", 24)

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "noirdb")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))
	env := getEnv("APP_ENV", "development")

	logFormat := "json"
	if env != "production" {
		logFormat = "console"
	}

	return &Config{
		Env:         env,
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		SiteName:    getEnv("SITE_NAME", "NoirDB"),
		SiteUrl:     getEnv("SITE_URL", "http://localhost:5005"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", logFormat),

		DailyPickInterval:    time.Duration(pickHours) * time.Hour,
		DailyPickMaxAttempts: getEnvInt("DAILY_PICK_MAX_ATTEMPTS", 10),

		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "25"),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		ContactRecipient: getEnv("CONTACT_RECIPIENT", "admin@example.com"),
	}
}

// IsDefaultSecret 是否仍在使用默认密钥
func (c *Config) IsDefaultSecret() bool {
	return c.AppSecret == "your-secret-key-change-in-production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 读取整数配置，非法或非正数时使用默认值
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	S3       S3Config
	SMTP     SMTPConfig
	JWT      JWTConfig
	Backend  BackendConfig
	Quiz     QuizConfig
	Otel     OtelConfig
}

type ServerConfig struct {
	HTTPPort       string
	GRPCPort       string
	AppEnv         string
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type S3Config struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	DoubtsBucket string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type JWTConfig struct {
	Secret string
}

// BackendConfig points at the external AI service that generates quizzes,
// explanations and image solutions.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type QuizConfig struct {
	DefaultDurationSec int
	TopicThreshold     int
	HandoffTTL         time.Duration
	DispatcherWorkers  int
	DispatcherQueue    int
	QuestionBankDir    string
}

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			HTTPPort:       getEnv("HTTP_PORT", "8080"),
			GRPCPort:       getEnv("GRPC_PORT", "50051"),
			AppEnv:         getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "jee"),
			Password: getEnv("DB_PASSWORD", "jee_password"),
			DBName:   getEnv("DB_NAME", "jee_solver"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "redis"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "rabbitmq"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "admin"),
			Password: getEnv("RABBITMQ_PASSWORD", "admin"),
		},
		S3: S3Config{
			Endpoint:     getEnv("S3_ENDPOINT", "minio:9000"),
			AccessKey:    getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretKey:    getEnv("S3_SECRET_KEY", "minioadmin"),
			UseSSL:       getEnvAsBool("S3_USE_SSL", false),
			DoubtsBucket: getEnv("S3_DOUBTS_BUCKET", "doubts"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 1025),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@jeesolver.app"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api/v1"), "/"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 20*time.Second),
		},
		Quiz: QuizConfig{
			DefaultDurationSec: getEnvAsInt("QUIZ_DEFAULT_DURATION_SEC", 30*60),
			TopicThreshold:     getEnvAsInt("QUIZ_TOPIC_THRESHOLD", 3),
			HandoffTTL:         getEnvAsDuration("QUIZ_HANDOFF_TTL", time.Hour),
			DispatcherWorkers:  getEnvAsInt("QUIZ_DISPATCHER_WORKERS", 8),
			DispatcherQueue:    getEnvAsInt("QUIZ_DISPATCHER_QUEUE", 256),
			QuestionBankDir:    getEnv("QUESTION_BANK_DIR", "./data/questions"),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "jee-solver"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

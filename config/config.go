package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string
	JWTTTL    time.Duration

	// A session may only start within this window after a passing
	// verification attempt.
	VerifyWindow time.Duration

	BlobDir     string
	BlobBaseURL string

	TelegramBotToken string
	AdminChatID      int64
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "saferide"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "saferide"))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", "localhost"))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", "dev-secret"))
	cfg.JWTTTL = cast.ToDuration(getOrReturnDefault("JWT_TTL", "24h"))

	cfg.VerifyWindow = cast.ToDuration(getOrReturnDefault("VERIFY_WINDOW", "10m"))

	cfg.BlobDir = cast.ToString(getOrReturnDefault("BLOB_DIR", "./blobs"))
	cfg.BlobBaseURL = cast.ToString(getOrReturnDefault("BLOB_BASE_URL", "http://localhost:8080/blobs"))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TG_BOT_TOKEN", ""))
	cfg.AdminChatID = cast.ToInt64(getOrReturnDefault("ADMIN_CHAT_ID", 0))

	return cfg
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

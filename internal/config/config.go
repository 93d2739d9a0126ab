package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Blob      BlobConfig
	RateLimit RateLimitConfig

	ResolutionConfigPath string
	SeedDemoData         bool
	SnowflakeNode        int64
}

// TelemetryConfig covers logging, tracing and OTLP metrics.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

type BlobConfig struct {
	Store         string
	LocalDir      string
	PublicBaseURL string
	S3            S3Config
}

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
	PresignSeconds int
	// PublicBaseURL, when set, replaces presigned URLs (CDN or public bucket).
	PublicBaseURL string
}

type RateLimitConfig struct {
	Enabled              bool
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	UploadRate           float64
	UploadBurst          int
	UploadLockTTLSeconds int
}

const (
	BlobStoreS3     = "s3"
	BlobStoreLocal  = "local"
	BlobStoreMemory = "memory"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "checkmapper"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
			OTLPProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "checkmapper"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "checkmapper.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		Blob: BlobConfig{
			Store:         normalizeBlobStore(getenv("BLOB_STORE", BlobStoreLocal)),
			LocalDir:      getenv("BLOB_LOCAL_DIR", "./data/blobs"),
			PublicBaseURL: strings.TrimRight(strings.TrimSpace(getenv("BLOB_PUBLIC_BASE_URL", "http://localhost:8080/blobs")), "/"),
			S3: S3Config{
				Bucket:         strings.TrimSpace(getenv("S3_BUCKET", "checkmapper-checks")),
				Region:         getenv("S3_REGION", "us-east-1"),
				Endpoint:       strings.TrimSpace(getenv("S3_ENDPOINT", "")),
				AccessKey:      strings.TrimSpace(getenv("S3_ACCESS_KEY", "")),
				SecretKey:      strings.TrimSpace(getenv("S3_SECRET_KEY", "")),
				UsePathStyle:   getenvBool("S3_USE_PATH_STYLE", true),
				PresignSeconds: getenvInt("S3_PRESIGN_SECONDS", 7*24*3600),
				PublicBaseURL:  strings.TrimRight(strings.TrimSpace(getenv("S3_PUBLIC_BASE_URL", "")), "/"),
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:              getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:            strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			RedisPassword:        strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:              getenvInt("REDIS_DB", 0),
			UploadRate:           getenvFloat("RATE_LIMIT_UPLOAD_RATE", 1),
			UploadBurst:          getenvInt("RATE_LIMIT_UPLOAD_BURST", 10),
			UploadLockTTLSeconds: getenvInt("RATE_LIMIT_UPLOAD_LOCK_TTL_SECONDS", 30),
		},

		ResolutionConfigPath: strings.TrimSpace(getenv("RESOLUTION_CONFIG_PATH", "")),
		SeedDemoData:         getenvBool("SEED_DEMO_DATA", false),
		SnowflakeNode:        int64(getenvInt("SNOWFLAKE_NODE", 1)),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeBlobStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case BlobStoreS3:
		return BlobStoreS3
	case BlobStoreMemory:
		return BlobStoreMemory
	default:
		return BlobStoreLocal
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DB      DBConfig
	Storage StorageConfig
	MinIO   MinIOConfig
	JWT     JWTConfig
	Server  ServerConfig
	Tree    TreeConfig
	Audit   AuditConfig
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type StorageConfig struct {
	Driver string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port          string
	CORSOrigins   string
	BodyLimitMB   int
	MaxFileSizeMB int
}

type TreeConfig struct {
	MaxDepth         int
	CompressionLevel int
}

type AuditConfig struct {
	// ExportIntervalMinutes of zero disables the NDJSON exporter.
	ExportIntervalMinutes int
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageDriverMinIO  = "minio"
	StorageDriverMemory = "memory"
)

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DBDriverPostgres)),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "corpdrive"),
			Password:   getEnv("DB_PASSWORD", "corpdrive_secret"),
			Name:       getEnv("DB_NAME", "corpdrive"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "corpdrive.db"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMinIO)),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "corpdrive"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "corpdrive_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "corpdrive"),
			Region:    getEnv("MINIO_REGION", ""),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 720),
		},
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
			BodyLimitMB:   getEnvAsInt("BODY_LIMIT_MB", 120),
			MaxFileSizeMB: getEnvAsInt("UPLOAD_MAX_FILE_MB", 100),
		},
		Tree: TreeConfig{
			MaxDepth:         getEnvAsInt("TREE_MAX_DEPTH", 256),
			CompressionLevel: getEnvAsInt("ARCHIVE_COMPRESSION_LEVEL", 9),
		},
		Audit: AuditConfig{
			ExportIntervalMinutes: getEnvAsInt("AUDIT_EXPORT_INTERVAL_MINUTES", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

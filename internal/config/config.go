// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Forecast ForecastConfig
	Artifact ArtifactConfig
	Ingest   IngestConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ForecastConfig tunes the demand model and the forecast batch.
type ForecastConfig struct {
	Trees               int
	MaxDepth            int
	Seed                int64
	TrainingDays        int
	DefaultHorizonHours int
	MaxHorizonHours     int
	Workers             int
}

// ArtifactConfig selects where trained model bundles are persisted.
// Backend is "local" or "s3".
type ArtifactConfig struct {
	Backend     string
	LocalDir    string
	Key         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

type IngestConfig struct {
	DriveCredentialsFile string
	DriveFolderID        string
	Port                 string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "bloodlink")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("FORECAST_TREES", 100)
		viper.SetDefault("FORECAST_MAX_DEPTH", 10)
		viper.SetDefault("FORECAST_SEED", 42)
		viper.SetDefault("FORECAST_TRAINING_DAYS", 365)
		viper.SetDefault("FORECAST_DEFAULT_HORIZON_HOURS", 48)
		viper.SetDefault("FORECAST_MAX_HORIZON_HOURS", 168)
		viper.SetDefault("FORECAST_WORKERS", 4)
		viper.SetDefault("MODEL_ARTIFACT_BACKEND", "local")
		viper.SetDefault("MODEL_ARTIFACT_DIR", "./data/models")
		viper.SetDefault("MODEL_ARTIFACT_KEY", "blood_demand_model.json")
		viper.SetDefault("MODEL_S3_ENDPOINT", "")
		viper.SetDefault("MODEL_S3_ACCESS_KEY", "")
		viper.SetDefault("MODEL_S3_SECRET_KEY", "")
		viper.SetDefault("MODEL_S3_BUCKET", "bloodlink-models")
		viper.SetDefault("MODEL_S3_USE_SSL", true)
		viper.SetDefault("INGEST_DRIVE_CREDENTIALS_FILE", "")
		viper.SetDefault("INGEST_DRIVE_FOLDER_ID", "")
		viper.SetDefault("INGEST_PORT", "8081")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure the local artifact directory exists
		if viper.GetString("MODEL_ARTIFACT_BACKEND") == "local" {
			ensureDir(viper.GetString("MODEL_ARTIFACT_DIR"))
		}

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Forecast: ForecastConfig{
				Trees:               viper.GetInt("FORECAST_TREES"),
				MaxDepth:            viper.GetInt("FORECAST_MAX_DEPTH"),
				Seed:                viper.GetInt64("FORECAST_SEED"),
				TrainingDays:        viper.GetInt("FORECAST_TRAINING_DAYS"),
				DefaultHorizonHours: viper.GetInt("FORECAST_DEFAULT_HORIZON_HOURS"),
				MaxHorizonHours:     viper.GetInt("FORECAST_MAX_HORIZON_HOURS"),
				Workers:             viper.GetInt("FORECAST_WORKERS"),
			},
			Artifact: ArtifactConfig{
				Backend:     viper.GetString("MODEL_ARTIFACT_BACKEND"),
				LocalDir:    viper.GetString("MODEL_ARTIFACT_DIR"),
				Key:         viper.GetString("MODEL_ARTIFACT_KEY"),
				S3Endpoint:  viper.GetString("MODEL_S3_ENDPOINT"),
				S3AccessKey: viper.GetString("MODEL_S3_ACCESS_KEY"),
				S3SecretKey: viper.GetString("MODEL_S3_SECRET_KEY"),
				S3Bucket:    viper.GetString("MODEL_S3_BUCKET"),
				S3UseSSL:    viper.GetBool("MODEL_S3_USE_SSL"),
			},
			Ingest: IngestConfig{
				DriveCredentialsFile: viper.GetString("INGEST_DRIVE_CREDENTIALS_FILE"),
				DriveFolderID:        viper.GetString("INGEST_DRIVE_FOLDER_ID"),
				Port:                 viper.GetString("INGEST_PORT"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}

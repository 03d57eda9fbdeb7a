package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string

	// Upstream analysis engine. LambdaURL is the server-side address used by
	// the report proxy. PublicLambdaURL is the legacy client-visible variant;
	// it is never called, only detected so misconfigured deployments get a
	// warning at startup.
	LambdaURL       string
	PublicLambdaURL string
	AnalysisTimeout time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PresignExpiry  time.Duration

	LogFilePath string
	Environment string
}

var loadDotenv sync.Once

// LoadConfig loads configuration from environment variables with defaults.
// A .env file in the working directory is folded into the environment once.
func LoadConfig() *Config {
	loadDotenv.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, using system environment")
		}
	})

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "3003"),
		LambdaURL:       getEnv("LAMBDA_URL", ""),
		PublicLambdaURL: getEnv("PUBLIC_LAMBDA_URL", ""),
		AnalysisTimeout: time.Duration(getEnvAsInt("ANALYSIS_TIMEOUT_SECONDS", 30)) * time.Second,
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:     getEnv("MINIO_BUCKET", "audit-uploads"),
		MinioUseSSL:     getEnv("MINIO_USE_SSL", "false") == "true",
		PresignExpiry:   time.Duration(getEnvAsInt("PRESIGN_EXPIRY_SECONDS", 900)) * time.Second,
		LogFilePath:     getEnv("LOG_FILE_PATH", "intake.log"),
		Environment:     getEnv("GO_ENV", "development"),
	}
}

// ConfigManager serves the current configuration and refreshes it in the
// background so credential rotation does not require a restart.
type ConfigManager struct {
	mu     sync.RWMutex
	config *Config
}

func NewConfigManager() *ConfigManager {
	cm := &ConfigManager{
		config: LoadConfig(),
	}
	go cm.periodicReload()
	return cm
}

func (cm *ConfigManager) periodicReload() {
	for {
		time.Sleep(10 * time.Second)
		newConfig := LoadConfig()
		cm.mu.Lock()
		cm.config = newConfig
		cm.mu.Unlock()
	}
}

func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// getEnv gets environment variable with default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

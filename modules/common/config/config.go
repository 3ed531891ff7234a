package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the server.
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBucket  string
	SupabaseStorageBaseURL string

	// Gemini
	GeminiAPIKeys []string // key pool, tried in order on quota errors
	TextModel     string
	ImageModel    string

	// Generation loop
	GenerationTimeoutSeconds int
	InterCallDelayMS         int
	AnchorPolicy             string // "chain" or "first-only"
	UseStaticConcepts        bool

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig reads .env (when present) and the process environment,
// validates required variables and stores the result as the process-wide
// configuration.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "generated-images"),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini
		GeminiAPIKeys: splitKeys(getEnv("GEMINI_API_KEYS", os.Getenv("GEMINI_API_KEY"))),
		TextModel:     getEnv("TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:    getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),

		// Generation loop
		GenerationTimeoutSeconds: getEnvInt("GENERATION_TIMEOUT_SECONDS", 60),
		InterCallDelayMS:         getEnvInt("INTER_CALL_DELAY_MS", 1000),
		AnchorPolicy:             getEnv("ANCHOR_POLICY", "chain"),
		UseStaticConcepts:        getEnvBool("USE_STATIC_CONCEPTS", false),

		// Server
		Port: getEnv("PORT", "8080"),
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s (bucket: %s)", globalConfig.SupabaseURL, globalConfig.SupabaseStorageBucket)
	log.Printf("   Models: text=%s image=%s (keys: %d)", globalConfig.TextModel, globalConfig.ImageModel, len(globalConfig.GeminiAPIKeys))
	log.Printf("   Loop: timeout=%ds delay=%dms anchor=%s", globalConfig.GenerationTimeoutSeconds, globalConfig.InterCallDelayMS, globalConfig.AnchorPolicy)

	return globalConfig, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEYS is required")
	}
	if c.AnchorPolicy != "chain" && c.AnchorPolicy != "first-only" {
		return fmt.Errorf("ANCHOR_POLICY must be 'chain' or 'first-only', got %q", c.AnchorPolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// GetRedisAddr builds the host:port pair for the Redis client.
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// GenerationTimeout is the per-call budget for a single model invocation.
func (c *Config) GenerationTimeout() int {
	if c.GenerationTimeoutSeconds <= 0 {
		return 60
	}
	return c.GenerationTimeoutSeconds
}

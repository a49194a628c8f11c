package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Settings holds everything that changes between machines: secrets, paths and endpoints.
// Defaults come from the constants in this package.
type Settings struct {
	Prod         bool
	LogLevel     string
	AuthToken    string
	NoAuthBypass bool

	LLMProvider  string
	OpenAIKey    string
	GoogleAPIKey string

	VectorStoreDirectory string
	RedisAddr            string
	RedisPassword        string
	QdrantHost           string
	QdrantPort           int

	EUMetadataPath        string
	EUWorkMetadataMapping string
	EUWorkEurovocMapping  string
	EUWorkCelexMapping    string
	EULegalActMetadata    string
	EUHTMLRoot            string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	Workers int
}

var (
	settings     Settings
	settingsOnce sync.Once
)

// Get loads the .env file (if any) once and returns the process settings.
func Get() Settings {
	settingsOnce.Do(func() {
		_ = godotenv.Load()
		settings = fromEnv()
	})
	return settings
}

// IsProd reports whether the JSON log handler should be used.
func IsProd() bool {
	return Get().Prod
}

func fromEnv() Settings {
	return Settings{
		Prod:         envBool("APP_PROD", false),
		LogLevel:     envString("LOG_LEVEL", "debug"),
		AuthToken:    os.Getenv("API_AUTH_TOKEN"),
		NoAuthBypass: envBool("API_NO_AUTH", false),

		LLMProvider:  strings.ToLower(envString("LLM_PROVIDER", LLMProviderOpenAI)),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),

		VectorStoreDirectory: envString("VECTORSTORE_DIRECTORY", VectorStoreDirectory),
		RedisAddr:            envString("REDIS_ADDR", RedisAddr),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		QdrantHost:           envString("QDRANT_HOST", QdrantHost),
		QdrantPort:           envInt("QDRANT_PORT", QdrantGrpcPort),

		EUMetadataPath:        os.Getenv("EU_METADATA_PATH"),
		EUWorkMetadataMapping: os.Getenv("EU_WORK_METADATA_MAPPING_PATH"),
		EUWorkEurovocMapping:  os.Getenv("EU_WORK_EUROVOC_MAPPING_PATH"),
		EUWorkCelexMapping:    os.Getenv("EU_WORK_CELEX_MAPPING_PATH"),
		EULegalActMetadata:    os.Getenv("EU_LEGAL_ACT_METADATA_FILE"),
		EUHTMLRoot:            os.Getenv("EU_HTML_ROOT"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3Bucket:    envString("S3_BUCKET", EUDocumentBucket),
		S3Region:    os.Getenv("S3_REGION"),
		S3UseSSL:    envBool("S3_USE_SSL", true),

		Workers: envInt("EU_WORKERS", runtime.NumCPU()),
	}
}

func envString(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig
	Server   ServerConfig
	OCR      OCRConfig
	Azure    AzureConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
	Watch    WatchConfig
	Log      LogConfig
}

// StoreConfig selects where pipeline run records go.
type StoreConfig struct {
	Driver           string // postgres | sqlite | bolt | none
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	MaxUploadBytes int64
}

// OCRConfig holds recognition-related configuration
type OCRConfig struct {
	Engines        []string
	TesseractPath  string
	Language       string
	TessdataDir    string
	OEM            int
	AttemptTimeout time.Duration
	EarlyExitScore float64
	MaxVariants    int
	TempDir        string
}

type AzureConfig struct {
	Endpoint string
	APIKey   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// PipelineConfig holds the gates applied before and after recognition.
type PipelineConfig struct {
	MinInputBytes      int
	MaxInputBytes      int64
	MinTranscriptChars int
	PDFMinTextChars    int
	OKThreshold        float64
	Workers            int
	JobTimeout         time.Duration
}

// WatchConfig lists inbox directories the service picks new invoices from.
type WatchConfig struct {
	Dirs     []string
	Debounce time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:           getEnv("RUN_STORE", "sqlite"),
			DSN:              getEnv("RUN_STORE_DSN", "file:invoice_runs.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 20<<20),
		},
		OCR: OCRConfig{
			Engines:        lowerAll(getEnvAsList("OCR_ENGINES", []string{"tesseract"})),
			TesseractPath:  getEnv("TESSERACT_PATH", "tesseract"),
			Language:       getEnv("OCR_LANGUAGE", "eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			OEM:            getEnvAsInt("OCR_OEM", 1),
			AttemptTimeout: getEnvAsDuration("OCR_ATTEMPT_TIMEOUT", 20*time.Second),
			EarlyExitScore: getEnvAsFloat64("OCR_EARLY_EXIT_SCORE", 85),
			MaxVariants:    getEnvAsInt("OCR_MAX_VARIANTS", 4),
			TempDir:        getEnv("OCR_TEMP_DIR", ""),
		},
		Azure: AzureConfig{
			Endpoint: getEnv("AZURE_VISION_ENDPOINT", ""),
			APIKey:   getEnv("AZURE_VISION_KEY", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Pipeline: PipelineConfig{
			MinInputBytes:      getEnvAsInt("MIN_INPUT_BYTES", 100),
			MaxInputBytes:      getEnvAsInt64("MAX_INPUT_BYTES", 20<<20),
			MinTranscriptChars: getEnvAsInt("MIN_TRANSCRIPT_CHARS", 20),
			PDFMinTextChars:    getEnvAsInt("PDF_MIN_TEXT_CHARS", 40),
			OKThreshold:        getEnvAsFloat64("OK_THRESHOLD", 0.4),
			Workers:            getEnvAsInt("PIPELINE_WORKERS", 4),
			JobTimeout:         getEnvAsDuration("PIPELINE_JOB_TIMEOUT", 3*time.Minute),
		},
		Watch: WatchConfig{
			Dirs:     getEnvAsList("WATCH_DIRS", nil),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "bolt":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "RUN_STORE_DSN is required for "+c.Store.Driver, ErrInvalidInput)
		}
	case "none":
	default:
		return NewAppError("CONFIG_ERROR", "RUN_STORE must be one of postgres, sqlite, bolt, none", ErrInvalidInput)
	}
	if len(c.OCR.Engines) == 0 {
		return NewAppError("CONFIG_ERROR", "OCR_ENGINES must name at least one engine", ErrInvalidInput)
	}
	for _, e := range c.OCR.Engines {
		switch e {
		case "azure":
			if c.Azure.Endpoint == "" || c.Azure.APIKey == "" {
				return NewAppError("CONFIG_ERROR", "AZURE_VISION_ENDPOINT and AZURE_VISION_KEY are required for the azure engine", ErrInvalidInput)
			}
		case "gemini":
			if c.Gemini.APIKey == "" {
				return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required for the gemini engine", ErrInvalidInput)
			}
		}
	}
	if c.OCR.AttemptTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_ATTEMPT_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.Pipeline.OKThreshold < 0 || c.Pipeline.OKThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "OK_THRESHOLD must be within [0,1]", ErrInvalidInput)
	}
	return nil
}

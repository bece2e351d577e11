package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string

	Conversion ConversionConfig
	Ravem      RavemConfig
	Tasks      TaskConfig
	Cron       CronConfig
}

type ConversionConfig struct {
	ServerURL       string
	ValidExtensions []string
	CallbackURL     string
	Secret          string
	StatusTTL       time.Duration
	RequestTimeout  time.Duration
}

type RavemConfig struct {
	APIEndpoint string
	Username    string
	Password    string
	Prefix      string
	Timeout     time.Duration
}

type TaskConfig struct {
	Queue       string
	DeadLetter  string
	Parked      string
	MaxRetries  int
	MaxRequeues int
	PollTimeout time.Duration
	TaskTimeout time.Duration
	Concurrency int
}

type CronConfig struct {
	Enabled         bool
	QueueReport     string
	DeadLetterRetry string
}

var defaultExtensions = "ppt,doc,pptx,docx,odp,sxi"

// MinSecretLength is the shortest CONVERSION_SECRET accepted, in bytes.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("CONVERSION_SECRET must be set")

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AppMode:       getEnv("APP_MODE", "development"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "conference"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Bucket:      getEnv("S3_BUCKET", "attachments"),
		S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3PublicBase:  getEnv("S3_PUBLIC_BASE", ""),
		Conversion: ConversionConfig{
			ServerURL:       getEnv("CONVERSION_SERVER_URL", "http://conversion.cern.ch/uploadFile.py"),
			ValidExtensions: NormalizeExtensions(splitList(getEnv("CONVERSION_VALID_EXTENSIONS", defaultExtensions))),
			CallbackURL:     getEnv("CONVERSION_CALLBACK_URL", "http://localhost:8080/conversion/finished"),
			Secret:          getEnv("CONVERSION_SECRET", ""),
			StatusTTL:       getEnvAsDuration("CONVERSION_STATUS_TTL", time.Hour),
			RequestTimeout:  getEnvAsDuration("CONVERSION_TIMEOUT", 60*time.Second),
		},
		Ravem: RavemConfig{
			APIEndpoint: getEnv("RAVEM_API_ENDPOINT", "https://ravem.example.org/api/"),
			Username:    getEnv("RAVEM_USERNAME", ""),
			Password:    getEnv("RAVEM_PASSWORD", ""),
			Prefix:      getEnv("RAVEM_PREFIX", ""),
			Timeout:     getEnvAsDuration("RAVEM_TIMEOUT", 30*time.Second),
		},
		Tasks: TaskConfig{
			Queue:       getEnv("TASK_QUEUE", "tasks:conversion"),
			DeadLetter:  getEnv("TASK_DEAD_LETTER", "tasks:conversion:dead"),
			Parked:      getEnv("TASK_PARKED", "tasks:conversion:parked"),
			MaxRetries:  getEnvAsInt("TASK_MAX_RETRIES", 5),
			MaxRequeues: getEnvAsInt("TASK_MAX_REQUEUES", 3),
			PollTimeout: getEnvAsDuration("TASK_POLL_TIMEOUT", 5*time.Second),
			TaskTimeout: getEnvAsDuration("TASK_TIMEOUT", 2*time.Minute),
			Concurrency: getEnvAsInt("TASK_CONCURRENCY", 2),
		},
		Cron: CronConfig{
			Enabled:         getEnvAsBool("CRON_ENABLED", true),
			QueueReport:     getEnv("CRON_QUEUE_REPORT", "*/15 * * * *"),
			DeadLetterRetry: getEnv("CRON_DEAD_LETTER_RETRY", "0 * * * *"),
		},
	}
}

// Validate reports settings the service must not start with.
func (c *Config) Validate() error {
	if n := len(c.Conversion.Secret); n < MinSecretLength {
		return fmt.Errorf("%w to at least %d bytes, got %d", ErrWeakSecret, MinSecretLength, n)
	}
	return nil
}

// NormalizeExtensions lowercases, trims and strips the leading dot of every
// extension, dropping empties and duplicates. The result is sorted.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func splitList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

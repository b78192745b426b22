package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"ENV" env-default:"development"`
	Port        string `env:"PORT" env-default:"8080"`
	StoreDriver string `env:"STORE_DRIVER" env-default:"mongo"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
	SMTP     SMTPConfig
	Ledger   LedgerConfig
	CORS     CORSConfig
}

type MongoConfig struct {
	URI    string `env:"MONGO_URI"`
	DBName string `env:"DB_NAME" env-default:"marketplace"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type AuthConfig struct {
	Provider  string `env:"AUTH_PROVIDER" env-default:"firebase"`
	JWTSecret string `env:"JWT_SECRET"`
}

type FirebaseConfig struct {
	ProjectID         string `env:"FIREBASE_PROJECT_ID"`
	CredentialsBase64 string `env:"FIREBASE_CREDENTIALS_BASE64"`
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	StorageBucket     string `env:"FIREBASE_STORAGE_BUCKET"`
}

type StorageConfig struct {
	Provider string `env:"STORAGE_PROVIDER" env-default:"local"`
	LocalDir string `env:"UPLOAD_DIR" env-default:"uploads"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"marketplace.ledger"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" env-default:"2525"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

type LedgerConfig struct {
	CommissionRate   float64       `env:"COMMISSION_RATE" env-default:"1.0"`
	RevenueTimezone  string        `env:"REVENUE_TIMEZONE" env-default:"UTC"`
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" env-default:"100ms"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" env-default:"2s"`
}

// Load reads the environment (after an optional .env file) into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on an invalid configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

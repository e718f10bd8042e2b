package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds the serve-mode settings, read from the environment with a
// local .env file loaded first.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Addr         string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. Every key has a default,
// so Load never fails; a missing .env file is only noted.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("error while loading .env file: %v", err)
	}

	readTimeout, err := time.ParseDuration(cast.ToString(coalesce("REQSIFT_READ_TIMEOUT", "10s")))
	if err != nil {
		log.Printf("invalid REQSIFT_READ_TIMEOUT, using default 10s: %v", err)
		readTimeout = 10 * time.Second
	}
	writeTimeout, err := time.ParseDuration(cast.ToString(coalesce("REQSIFT_WRITE_TIMEOUT", "30s")))
	if err != nil {
		log.Printf("invalid REQSIFT_WRITE_TIMEOUT, using default 30s: %v", err)
		writeTimeout = 30 * time.Second
	}

	return &Config{
		Server: ServerConfig{
			Addr:         cast.ToString(coalesce("REQSIFT_ADDR", ":8390")),
			MaxBodyBytes: cast.ToInt64(coalesce("REQSIFT_MAX_BODY", 32<<20)),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Logging: LoggingConfig{
			Level:  cast.ToString(coalesce("REQSIFT_LOG_LEVEL", "info")),
			Format: cast.ToString(coalesce("REQSIFT_LOG_FORMAT", "json")),
		},
	}
}

func coalesce(key string, value interface{}) interface{} {
	if val, exist := os.LookupEnv(key); exist {
		return val
	}
	return value
}

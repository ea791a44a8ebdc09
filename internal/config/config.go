package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Forms    FormsConfig    `mapstructure:"forms"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`

	// PublicBaseURL is the externally reachable base used when composing
	// form links handed to external parties.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	StaffTTLHours   int    `mapstructure:"staff_ttl_hours"`
	SessionTTLHours int    `mapstructure:"session_ttl_hours"`
}

type FormsConfig struct {
	// LinkMaxAgeDays is how long an unused form link stays active before
	// the sweeper deactivates it.
	LinkMaxAgeDays int    `mapstructure:"link_max_age_days"`
	SweepSchedule  string `mapstructure:"sweep_schedule"`
}

type StorageConfig struct {
	Root string `mapstructure:"root"`
}

func LoadConfig() *Config {
	config := &Config{}

	// Set default values
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "3090")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.public_base_url", "http://localhost:3090")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "dev")
	viper.SetDefault("database.password", "devpass")
	viper.SetDefault("database.name", "accreditation")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("nats.url", "nats://localhost:4222")

	viper.SetDefault("jwt.secret", "your-super-secret-jwt-key-change-in-production")
	viper.SetDefault("jwt.staff_ttl_hours", 8)
	viper.SetDefault("jwt.session_ttl_hours", 2)

	viper.SetDefault("forms.link_max_age_days", 30)
	viper.SetDefault("forms.sweep_schedule", "0 3 * * *")

	viper.SetDefault("storage.root", "./uploads")

	// Read from environment variables
	viper.AutomaticEnv()

	// Override with environment variables if they exist
	if host := os.Getenv("SERVER_HOST"); host != "" {
		viper.Set("server.host", host)
	}
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		viper.Set("server.mode", mode)
	}
	if baseURL := os.Getenv("PUBLIC_BASE_URL"); baseURL != "" {
		viper.Set("server.public_base_url", baseURL)
	}

	// Database environment variables
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		viper.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		viper.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		viper.Set("database.user", dbUser)
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		viper.Set("database.password", dbPassword)
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		viper.Set("database.name", dbName)
	}
	if dbSSLMode := os.Getenv("DB_SSLMODE"); dbSSLMode != "" {
		viper.Set("database.sslmode", dbSSLMode)
	}

	// Redis environment variables
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		viper.Set("redis.host", redisHost)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		viper.Set("redis.port", redisPort)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}

	// NATS environment variables
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		viper.Set("nats.url", natsURL)
	}

	// JWT environment variables
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		viper.Set("jwt.secret", jwtSecret)
	}

	// Form link environment variables
	if maxAge := os.Getenv("FORM_LINK_MAX_AGE_DAYS"); maxAge != "" {
		viper.Set("forms.link_max_age_days", maxAge)
	}
	if schedule := os.Getenv("FORM_SWEEP_SCHEDULE"); schedule != "" {
		viper.Set("forms.sweep_schedule", schedule)
	}

	// Storage environment variables
	if root := os.Getenv("STORAGE_ROOT"); root != "" {
		viper.Set("storage.root", root)
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return config
}

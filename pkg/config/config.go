package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	Nexudus    NexudusConfig
	GoogleMaps GoogleMapsConfig
	Snapshot   SnapshotConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host                 string
	Port                 int
	ReadTimeout          int
	WriteTimeout         int
	BodyLimit            int
	AllowedOrigins       []string
	IsDevelopment        bool
	MaxRequestsPerMinute int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type NexudusConfig struct {
	BaseURL string
	// Token is a static bearer token. When empty, Username/Password
	// drive the password grant flow.
	Token    string
	Username string
	Password string

	PageSize        int
	TimeoutSec      int
	MaxAttempts     int
	RequestInterval int // milliseconds between paged requests
}

type GoogleMapsConfig struct {
	APIKey     string
	TimeoutSec int

	// POICategories maps a place type to its search radius in meters.
	POICategories map[string]int
	TransitTypes  map[string]int
}

type SnapshotConfig struct {
	Enabled bool
	Backend string // "filesystem" or "s3"
	Dir     string

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/infinitspace")

	viper.SetEnvPrefix("INFINITSPACE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.isDevelopment", false)
	viper.SetDefault("server.maxRequestsPerMinute", 60)

	viper.SetDefault("sqlite.path", "./data/warehouse.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("nexudus.baseURL", "https://spaces.nexudus.com/api")
	viper.SetDefault("nexudus.pageSize", 200)
	viper.SetDefault("nexudus.timeoutSec", 30)
	viper.SetDefault("nexudus.maxAttempts", 4)
	viper.SetDefault("nexudus.requestInterval", 250)

	viper.SetDefault("googlemaps.timeoutSec", 10)
	viper.SetDefault("googlemaps.poiCategories", map[string]int{
		"restaurant":         500,
		"cafe":               500,
		"gym":                1000,
		"supermarket":        1000,
		"tourist_attraction": 1500,
	})
	viper.SetDefault("googlemaps.transitTypes", map[string]int{
		"subway_station":     1000,
		"train_station":      1500,
		"bus_station":        500,
		"light_rail_station": 1000,
	})

	viper.SetDefault("snapshot.enabled", true)
	viper.SetDefault("snapshot.backend", "filesystem")
	viper.SetDefault("snapshot.dir", "./data/snapshots")
	viper.SetDefault("snapshot.s3Prefix", "nexudus")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}

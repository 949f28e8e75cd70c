package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	Storage  string `mapstructure:"storage"` // "postgres" or "memory"

	Database DatabaseConfig `mapstructure:"database"`

	KafkaEnabled    bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`

	// Fee policy knobs. Defaults implement the marketplace's flat-plus-
	// distance pricing: flat fee up to the included distance, a per-km
	// surcharge beyond it, and a fixed platform margin on surcharged trips.
	BaseDeliveryFee    float64 `mapstructure:"base_delivery_fee"`
	BasePartnerShare   float64 `mapstructure:"base_partner_share"`
	PerKmSurcharge     float64 `mapstructure:"per_km_surcharge"`
	IncludedDistanceKm float64 `mapstructure:"included_distance_km"`
	PlatformMargin     float64 `mapstructure:"platform_margin"`

	// Partner defaults.
	DefaultShiftStart   string  `mapstructure:"default_shift_start"`
	DefaultShiftEnd     string  `mapstructure:"default_shift_end"`
	CompletionThreshold float64 `mapstructure:"completion_threshold"` // percentage

	// Delivered-order archive.
	ArchiveEnabled bool   `mapstructure:"archive_enabled"`
	ArchiveBucket  string `mapstructure:"archive_bucket"`
	ArchiveRegion  string `mapstructure:"archive_region"`
	ArchiveFolder  string `mapstructure:"archive_folder"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	setFeeDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; flags and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}

func setFeeDefaults() {
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("storage", "postgres")
	viper.SetDefault("base_delivery_fee", 25.0)
	viper.SetDefault("base_partner_share", 20.0)
	viper.SetDefault("per_km_surcharge", 5.0)
	viper.SetDefault("included_distance_km", 5.0)
	viper.SetDefault("platform_margin", 5.0)
	viper.SetDefault("default_shift_start", "09:00")
	viper.SetDefault("default_shift_end", "22:00")
	viper.SetDefault("completion_threshold", 90.0)
	viper.SetDefault("shutdown_timeout", 15*time.Second)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.sslmode", "disable")
}

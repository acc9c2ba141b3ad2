package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harborview-hotels/service-reservation/pkg/database"
)

// KafkaConfig holds broker connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RazorpayConfig holds payment provider credentials.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DBConfig       database.PostgresConfig
	KafkaConfig    KafkaConfig
	RazorpayConfig RazorpayConfig

	// HoldWindow is how long a pending reservation may wait for payment.
	HoldWindow time.Duration

	// LockTTL bounds how long an abandoned room lock can linger.
	LockTTL time.Duration

	// SweepInterval is how often the expiry reclaimer runs.
	SweepInterval time.Duration

	// CancellationPolicy names the refund schedule preset:
	// "default", "flexible", or "strict".
	CancellationPolicy string
}

// Load reads configuration from RESERVATION_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RESERVATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", ":8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservations")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "harborview.")

	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")

	v.SetDefault("HOLD_WINDOW", "5m")
	v.SetDefault("LOCK_TTL", "10m")
	v.SetDefault("SWEEP_INTERVAL", "60s")
	v.SetDefault("CANCELLATION_POLICY", "default")

	port := v.GetString("PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RazorpayConfig: RazorpayConfig{
			KeyID:     v.GetString("RAZORPAY_KEY_ID"),
			KeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		},
		HoldWindow:         v.GetDuration("HOLD_WINDOW"),
		LockTTL:            v.GetDuration("LOCK_TTL"),
		SweepInterval:      v.GetDuration("SWEEP_INTERVAL"),
		CancellationPolicy: v.GetString("CANCELLATION_POLICY"),
	}, nil
}

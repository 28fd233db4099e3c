package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Clinic  ClinicConfig
	Booking BookingConfig
	SMTP    SMTPConfig
	Google  GoogleConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ClinicConfig holds the single-clinic scheduling parameters. All schedule
// wall-clock times are interpreted in Timezone.
type ClinicConfig struct {
	Timezone       string
	DataPath       string
	SlotMinutes    int
	MinLeadMinutes int
}

// BookingConfig bounds the commit path: external-call retries and the
// overall deadline one attempt may hold the doctor's timeline.
type BookingConfig struct {
	MaxCalendarRetries int
	RetryBaseDelay     time.Duration
	AttemptTimeout     time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type GoogleConfig struct {
	ServiceAccountFile string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Environment-only configuration is fine when no .env file exists.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("CLINIC_TIMEZONE", "Asia/Karachi")
	viper.SetDefault("HOSPITAL_DATA_PATH", "data/doctors.json")
	viper.SetDefault("SLOT_MINUTES", 30)
	viper.SetDefault("MIN_LEAD_MINUTES", 0)
	viper.SetDefault("BOOKING_MAX_CALENDAR_RETRIES", 3)
	viper.SetDefault("BOOKING_RETRY_BASE_DELAY", "500ms")
	viper.SetDefault("BOOKING_ATTEMPT_TIMEOUT", "30s")
	viper.SetDefault("SMTP_PORT", "587")

	retryBaseDelay, err := time.ParseDuration(viper.GetString("BOOKING_RETRY_BASE_DELAY"))
	if err != nil {
		retryBaseDelay = 500 * time.Millisecond
	}
	attemptTimeout, err := time.ParseDuration(viper.GetString("BOOKING_ATTEMPT_TIMEOUT"))
	if err != nil {
		attemptTimeout = 30 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port: viper.GetString("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Clinic: ClinicConfig{
			Timezone:       viper.GetString("CLINIC_TIMEZONE"),
			DataPath:       viper.GetString("HOSPITAL_DATA_PATH"),
			SlotMinutes:    viper.GetInt("SLOT_MINUTES"),
			MinLeadMinutes: viper.GetInt("MIN_LEAD_MINUTES"),
		},
		Booking: BookingConfig{
			MaxCalendarRetries: viper.GetInt("BOOKING_MAX_CALENDAR_RETRIES"),
			RetryBaseDelay:     retryBaseDelay,
			AttemptTimeout:     attemptTimeout,
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetString("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("SMTP_FROM"),
		},
		Google: GoogleConfig{
			ServiceAccountFile: viper.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		},
	}

	return config, nil
}

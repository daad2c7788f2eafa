package config

import (
	"github.com/spf13/viper"
)

// The service is expected to run with its settings injected as environment
// variables (DB connection, AWS config, queue URLs), so defaults here only
// cover the docker-compose/LocalStack development setup.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	AWSRegion         string `mapstructure:"AWS_REGION"`
	AWSEndpoint       string `mapstructure:"AWS_ENDPOINT"`
	SyncSQSQueueURL   string `mapstructure:"SYNC_SQS_QUEUE_URL"`
	ExportSQSQueueURL string `mapstructure:"EXPORT_SQS_QUEUE_URL"`
	NotifySQSQueueURL string `mapstructure:"NOTIFY_SQS_QUEUE_URL"`

	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
	PayrollAPIURL   string `mapstructure:"PAYROLL_API_URL"`
	AlertSender     string `mapstructure:"ALERT_SENDER"`
	AlertRecipient  string `mapstructure:"ALERT_RECIPIENT"`
	DefaultTimezone string `mapstructure:"DEFAULT_TIMEZONE"`

	// DuplicateWindowSecs is the near-duplicate rejection window in seconds.
	DuplicateWindowSecs int  `mapstructure:"DUPLICATE_WINDOW_SECS"`
	IsLocalDev          bool `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "punch_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("SYNC_SQS_QUEUE_URL", "http://localstack:4566/000000000000/sync-queue")
	viper.SetDefault("EXPORT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/export-queue")
	viper.SetDefault("NOTIFY_SQS_QUEUE_URL", "http://localstack:4566/000000000000/notify-queue")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("PAYROLL_API_URL", "http://localhost:8081/")
	viper.SetDefault("ALERT_SENDER", "attendance@punch-reconciler.local")
	viper.SetDefault("ALERT_RECIPIENT", "hr@punch-reconciler.local")
	viper.SetDefault("DEFAULT_TIMEZONE", "UTC")
	viper.SetDefault("DUPLICATE_WINDOW_SECS", 60)
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}

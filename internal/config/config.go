package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Streaming StreamingConfig
	Media     MediaConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	RabbitMQ  RabbitMQConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type StreamingConfig struct {
	HLSOutputDir         string        `envconfig:"HLS_OUTPUT_DIR" default:"/var/lib/streamgate/hls"`
	MaxConcurrentStreams int           `envconfig:"MAX_CONCURRENT_STREAMS" default:"3"`
	IdleTTL              time.Duration `envconfig:"STREAM_IDLE_TTL" default:"30m"`
	SegmentSeconds       int           `envconfig:"HLS_SEGMENT_SECONDS" default:"10"`
	FFmpegPath           string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
}

type MediaConfig struct {
	ThumbnailsDir string        `envconfig:"THUMBNAILS_DIR" default:"/var/lib/streamgate/thumbnails"`
	PostersDir    string        `envconfig:"POSTERS_DIR" default:"/var/lib/streamgate/posters"`
	FFprobePath   string        `envconfig:"FFPROBE_PATH" default:"ffprobe"`
	ProbeCacheTTL time.Duration `envconfig:"PROBE_CACHE_TTL" default:"10m"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"streamgate"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"streamgate"`
	DBName   string `envconfig:"POSTGRES_DB" default:"mediacatalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MinIOConfig struct {
	Enabled   bool   `envconfig:"MINIO_ENABLED" default:"false"`
	Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"hls-mirror"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type RabbitMQConfig struct {
	Enabled  bool   `envconfig:"RABBITMQ_ENABLED" default:"false"`
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"streamgate"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"streamgate"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

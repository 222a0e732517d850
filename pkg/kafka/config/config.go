package kafka_config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"webinars/pkg/logger"
)

var (
	compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}
	acks         = []int{-1, 0, 1}
)

// Config holds broker, producer and consumer settings shared by the
// participations service (producer) and the notifier relay (consumer).
type Config struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	ProducerMaxAttempts  int           `env:"KAFKA_PRODUCER_MAX_ATTEMPTS" envDefault:"3"`
	ProducerBatchTimeout time.Duration `env:"KAFKA_PRODUCER_BATCH_TIMEOUT" envDefault:"10ms"`
	// -1 = all replicas, 0 = none, 1 = leader only
	ProducerRequireAcks int    `env:"KAFKA_PRODUCER_REQUIRE_ACKS" envDefault:"-1"`
	ProducerCompression string `env:"KAFKA_PRODUCER_COMPRESSION" envDefault:"snappy"`
	// Notifications are handed off synchronously so a broker failure is logged
	// against the booking that caused it.
	ProducerAsync bool `env:"KAFKA_PRODUCER_ASYNC" envDefault:"false"`

	// -1 = newest, -2 = oldest
	ConsumerStartOffset       int64         `env:"KAFKA_CONSUMER_START_OFFSET" envDefault:"-1"`
	ConsumerMinBytes          int           `env:"KAFKA_CONSUMER_MIN_BYTES" envDefault:"1"`
	ConsumerMaxBytes          int           `env:"KAFKA_CONSUMER_MAX_BYTES" envDefault:"1048576"`
	ConsumerMaxWait           time.Duration `env:"KAFKA_CONSUMER_MAX_WAIT" envDefault:"500ms"`
	ConsumerCommitInterval    time.Duration `env:"KAFKA_CONSUMER_COMMIT_INTERVAL" envDefault:"1s"`
	ConsumerHeartbeatInterval time.Duration `env:"KAFKA_CONSUMER_HEARTBEAT_INTERVAL" envDefault:"3s"`
	ConsumerSessionTimeout    time.Duration `env:"KAFKA_CONSUMER_SESSION_TIMEOUT" envDefault:"10s"`
	ConsumerRebalanceTimeout  time.Duration `env:"KAFKA_CONSUMER_REBALANCE_TIMEOUT" envDefault:"60s"`
	ConsumerMaxRetries        int           `env:"KAFKA_CONSUMER_MAX_RETRIES" envDefault:"5"`
	ConsumerRetryBackoff      time.Duration `env:"KAFKA_CONSUMER_RETRY_BACKOFF" envDefault:"1s"`

	EnableMiddleware bool `env:"KAFKA_ENABLE_MIDDLEWARE" envDefault:"true"`
}

// Load reads the Kafka config from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse kafka config: %w", err)
	}

	brokers := cfg.Brokers[:0]
	for _, broker := range cfg.Brokers {
		brokers = append(brokers, strings.TrimSpace(broker))
	}
	cfg.Brokers = brokers

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string
	positive := func(name string, ok bool, value any) {
		if !ok {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %v", name, value))
		}
	}

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			problems = append(problems, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}

	positive("ProducerMaxAttempts", cfg.ProducerMaxAttempts > 0, cfg.ProducerMaxAttempts)
	positive("ProducerBatchTimeout", cfg.ProducerBatchTimeout > 0, cfg.ProducerBatchTimeout)
	if !slices.Contains(compressions, cfg.ProducerCompression) {
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of %v, got: %s", compressions, cfg.ProducerCompression))
	}
	if !slices.Contains(acks, cfg.ProducerRequireAcks) {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}

	if cfg.ConsumerStartOffset < -2 {
		problems = append(problems, fmt.Sprintf("ConsumerStartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", cfg.ConsumerStartOffset))
	}
	positive("ConsumerMinBytes", cfg.ConsumerMinBytes > 0, cfg.ConsumerMinBytes)
	positive("ConsumerMaxBytes", cfg.ConsumerMaxBytes >= cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes)
	positive("ConsumerMaxWait", cfg.ConsumerMaxWait > 0, cfg.ConsumerMaxWait)
	positive("ConsumerCommitInterval", cfg.ConsumerCommitInterval > 0, cfg.ConsumerCommitInterval)
	positive("ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval > 0, cfg.ConsumerHeartbeatInterval)
	positive("ConsumerSessionTimeout", cfg.ConsumerSessionTimeout > 0, cfg.ConsumerSessionTimeout)
	positive("ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout > 0, cfg.ConsumerRebalanceTimeout)
	positive("ConsumerRetryBackoff", cfg.ConsumerRetryBackoff > 0, cfg.ConsumerRetryBackoff)
	if cfg.ConsumerMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}

	if len(problems) > 0 {
		var b strings.Builder
		b.WriteString("Kafka configuration validation failed:\n")
		for i, p := range problems {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", b.String())
	}
	return nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

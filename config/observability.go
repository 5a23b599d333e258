package config

// ObservabilityConfig contains metrics configuration.
type ObservabilityConfig struct {
	// StatsDEnabled turns metric emission on.
	StatsDEnabled bool `env:"STATSD_ENABLED" envDefault:"false"`

	// StatsDAddress is the UDP host:port of the StatsD sink.
	StatsDAddress string `env:"STATSD_ADDRESS" envDefault:""`

	// StatsDPrefix is prepended to every metric name.
	StatsDPrefix string `env:"STATSD_PREFIX" envDefault:"hub"`
}

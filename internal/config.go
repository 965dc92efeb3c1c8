package internal

import "time"

type Config struct {
	Host            string `env:"HOST,required=true"`
	Port            int    `env:"PORT,required=true"`
	LogLevel        string `env:"LOG_LEVEL,required=true"`
	RoomsConfigPath string `env:"ROOMS_CONFIG_PATH,required=true"`

	// Fanout tuning.
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`

	// A CALLED entry older than NoShowTimeout is swept to NO_SHOW every
	// NoShowSweepInterval.
	NoShowTimeout       time.Duration `env:"NO_SHOW_TIMEOUT,required=true"`
	NoShowSweepInterval time.Duration `env:"NO_SHOW_SWEEP_INTERVAL,required=true"`

	MetricInterval time.Duration `env:"METRIC_INTERVAL,required=true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
}

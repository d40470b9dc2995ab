package kernel

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger: a colored console writer
// in development, JSON lines everywhere else.
func SetupLogger(c *Config) {
	SetupLoggerTo(c, os.Stdout)
}

func SetupLoggerTo(c *Config, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Caller().Logger()
		return
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", c.ServiceName).
		Str("environment", c.Environment).
		Logger()
}

package logging

import (
	"io"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// DiagConfig controls the zerolog diagnostic logger.
type DiagConfig struct {
	Level   string
	File    io.Writer
	Console bool

	// GraylogAddress enables a GELF writer when non-empty, e.g. "localhost:12201".
	GraylogAddress string
}

// parseZerologLevel converts a string log level to zerolog.Level.
func parseZerologLevel(level string) zerolog.Level {
	switch lvl, err := zerolog.ParseLevel(level); {
	case err != nil:
		return zerolog.InfoLevel
	case lvl == zerolog.NoLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}

// NewDiagLogger builds the zerolog diagnostic logger. This is the low-volume
// operational channel: run lifecycle, storage health, shipping to Graylog when
// configured. Per-frame logging stays on the slog side.
func NewDiagLogger(cfg DiagConfig, hook zerolog.Hook) (zerolog.Logger, error) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
	if cfg.File != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        cfg.File,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if cfg.GraylogAddress != "" {
		gw, err := gelf.NewWriter(cfg.GraylogAddress)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, gw)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseZerologLevel(cfg.Level)).
		With().Timestamp().Logger()
	if hook != nil {
		logger = logger.Hook(hook)
	}

	return logger, nil
}

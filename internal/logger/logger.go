// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger holds logging options, meant to be embedded as a go-flags option group.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format (auto selects console on a terminal)" choice:"auto" choice:"console" choice:"json" default:"auto"`
	File   string `long:"log-file"   env:"LOG_FILE"   description:"Also write JSON logs to this file (rotated)"`

	MaxSizeMB  int  `long:"log-max-size"    env:"LOG_MAX_SIZE"    description:"Max log file size in MB before rotation" default:"50"`
	MaxBackups int  `long:"log-max-backups" env:"LOG_MAX_BACKUPS" description:"Rotated log files to keep" default:"3"`
	NoColor    bool `long:"log-no-color"    env:"LOG_NO_COLOR"    description:"Disable colors in console output"`
}

// Setup applies the options to the global logger.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	log.Logger = zerolog.New(l.writer(os.Stderr)).With().Timestamp().Logger()

	if err != nil && l.Level != "" {
		log.Warn().Str("level", l.Level).Msg("Unknown log level, using info")
	}
}

// writer builds the output chain for the configured format and optional file.
func (l *Logger) writer(stderr *os.File) io.Writer {
	var out io.Writer = stderr

	console := l.Format == "console" ||
		(l.Format != "json" && isatty.IsTerminal(stderr.Fd()))
	if console {
		out = zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.TimeOnly,
			NoColor:    l.NoColor,
		}
	}

	if l.File == "" {
		return out
	}

	rotated := &lumberjack.Logger{
		Filename:   l.File,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		Compress:   true,
	}

	return zerolog.MultiLevelWriter(out, rotated)
}

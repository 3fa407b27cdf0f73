package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogMode string

const (
	LogModeDebug  LogMode = "debug"
	LogModePretty LogMode = "pretty"
	LogModeInfo   LogMode = "info"
	LogModeProd   LogMode = "prod"
	LogModeTest   LogMode = "test"
)

var log = zerolog.Nop()

// Init configures the pretty console logger at debug level.
func Init() {
	InitWithMode(LogModePretty)
}

// InitWithMode configures the global logger. Unknown modes fall back to pretty.
func InitWithMode(mode LogMode) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch mode {
	case LogModeProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case LogModeTest:
		zerolog.SetGlobalLevel(zerolog.Disabled)
		log = zerolog.New(io.Discard)
	case LogModeInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log = zerolog.New(consoleWriter()).With().Timestamp().Logger()
	case LogModeDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log = zerolog.New(consoleWriter()).With().Timestamp().Caller().Logger()
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log = zerolog.New(consoleWriter()).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			return colorizeLevel(s)
		},
		FormatMessage: func(i interface{}) string {
			s, _ := i.(string)
			return colorize(s, cyan)
		},
		FormatFieldName: func(i interface{}) string {
			return colorize(fmt.Sprint(i)+":", gray)
		},
		FormatFieldValue: func(i interface{}) string {
			switch v := i.(type) {
			case string:
				return colorize(v, blue)
			case json.Number:
				return colorize(v.String(), blue)
			default:
				return colorize(fmt.Sprint(v), blue)
			}
		},
	}
}

// ANSI color codes
const (
	gray  = "\x1b[37m"
	blue  = "\x1b[34m"
	cyan  = "\x1b[36m"
	red   = "\x1b[31m"
	green = "\x1b[32m"
	reset = "\x1b[0m"
)

func colorize(s, color string) string {
	return color + s + reset
}

func colorizeLevel(level string) string {
	switch level {
	case "debug":
		return colorize("DBG", gray)
	case "info":
		return colorize("INF", green)
	case "warn":
		return colorize("WRN", cyan)
	case "error":
		return colorize("ERR", red)
	case "fatal":
		return colorize("FTL", red)
	default:
		return colorize(level, blue)
	}
}

// Get returns the logger instance
func Get() zerolog.Logger {
	return log
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Error logs an error message
func Error(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}

// Info logs an info message
func Info(msg string) {
	log.Info().Msg(msg)
}

// Debug logs a debug message
func Debug(msg string) {
	log.Debug().Msg(msg)
}

package orbrun

import (
	"os"
	"strconv"

	"github.com/raykavin/orbrun/pkg/logger"
	"github.com/raykavin/orbrun/pkg/logger/zerolog"
)

const (
	// Default configuration values
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "ORBRUN_LOG_LEVEL"
	envLogTimeFormat = "ORBRUN_LOG_TIME_FORMAT"
	envLogColor      = "ORBRUN_LOG_COLOR"
	envLogJSON       = "ORBRUN_LOG_JSON"
)

// DefaultLog is the package logger, configured from ORBRUN_LOG_* variables
var DefaultLog logger.Logger

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// initLogger creates a new logger instance configured from environment variables
func initLogger() (logger.Logger, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	return zerolog.New(zerolog.Options{
		Level:          getEnvWithDefault(envLogLevel, defaultLogLevel),
		DateTimeLayout: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:        logColored,
		JSON:           logJSON,
	})
}

// NewLogger builds a logger from explicit settings, used when a config file
// overrides the environment
func NewLogger(level, timeFormat string, colored, json bool) (logger.Logger, error) {
	return zerolog.New(zerolog.Options{
		Level:          level,
		DateTimeLayout: timeFormat,
		Colored:        colored,
		JSON:           json,
	})
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}

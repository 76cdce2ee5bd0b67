package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// AllSubsystems may be used in place of a subsystem name in a LogLevelConfig to set the level of
// every subsystem not named explicitly.
const AllSubsystems = "*"

const defaultLogLevel = logrus.InfoLevel

var levelMap = map[string]logrus.Level{
	"trace":   logrus.TraceLevel,
	"debug":   logrus.DebugLevel,
	"info":    logrus.InfoLevel,
	"warning": logrus.WarnLevel,
	"warn":    logrus.WarnLevel,
	"error":   logrus.ErrorLevel,
	"fatal":   logrus.FatalLevel,
	"panic":   logrus.PanicLevel,
}

// LogLevelConfig is a comma separated list of subsystem=level pairs, e.g. "APIClient=debug,*=warning".
type LogLevelConfig string

type LogRegistry struct {
	defaultLevel      logrus.Level
	levelBySubsystem  map[string]logrus.Level
	loggerBySubsystem map[string]*logrus.Logger
	mu                sync.Mutex
}

// ListLogLevels returns a comma separated string listing valid log levels.
func ListLogLevels() string {
	names := make([]string, 0, len(levelMap))
	for name := range levelMap {
		names = append(names, fmt.Sprintf("%q", name))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func NewLogRegistry(config LogLevelConfig) (*LogRegistry, error) {
	r := &LogRegistry{
		defaultLevel:      defaultLogLevel,
		levelBySubsystem:  make(map[string]logrus.Level),
		loggerBySubsystem: make(map[string]*logrus.Logger),
	}
	if strings.TrimSpace(string(config)) == "" {
		return r, nil
	}
	for _, pair := range strings.Split(string(config), ",") {
		subsystem, levelStr, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || subsystem == "" {
			return nil, fmt.Errorf("error invalid log level format: %q", pair)
		}
		level, ok := levelMap[strings.ToLower(levelStr)]
		if !ok {
			return nil, fmt.Errorf("error invalid log level for %q: %q (valid levels: %s)", subsystem, levelStr, ListLogLevels())
		}
		if subsystem == AllSubsystems {
			r.defaultLevel = level
		} else {
			r.levelBySubsystem[subsystem] = level
		}
	}
	return r, nil
}

// GetLogLevel returns the configured log level for the specified subsystem.
func (r *LogRegistry) GetLogLevel(subsystem string) logrus.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levelBySubsystem[subsystem]
	if !ok {
		return r.defaultLevel
	}
	return level
}

// SetLogLevel changes the level of a subsystem, including any logger already made for it.
func (r *LogRegistry) SetLogLevel(subsystem string, level logrus.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelBySubsystem[subsystem] = level
	if logger, ok := r.loggerBySubsystem[subsystem]; ok {
		logger.SetLevel(level)
	}
}

// RegisterLogger records the logger made for a subsystem so that its level can be changed later.
func (r *LogRegistry) RegisterLogger(subsystem string, logger *logrus.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggerBySubsystem[subsystem] = logger
}

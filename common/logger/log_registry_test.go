package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogRegistryLevels(t *testing.T) {
	r, err := NewLogRegistry("APIClient=debug, ResolutionClient=WARN")
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, r.GetLogLevel("APIClient"))
	require.Equal(t, logrus.WarnLevel, r.GetLogLevel("ResolutionClient"))
	require.Equal(t, logrus.InfoLevel, r.GetLogLevel("ConnectionService"))

	r, err = NewLogRegistry("*=trace,ProjectStore=error")
	require.NoError(t, err)
	require.Equal(t, logrus.TraceLevel, r.GetLogLevel("ConnectionService"))
	require.Equal(t, logrus.ErrorLevel, r.GetLogLevel("ProjectStore"))

	r, err = NewLogRegistry("ConnectionService=debug,ResolutionClient=trace")
	require.NoError(t, err)
	require.Equal(t, logrus.TraceLevel, r.GetLogLevel("ResolutionClient"))
	require.Equal(t, defaultLogLevel, r.GetLogLevel("ProjectService"))
}

func TestLogRegistryInvalid(t *testing.T) {
	for _, config := range []LogLevelConfig{"APIClient", "=debug", "APIClient=loud"} {
		_, err := NewLogRegistry(config)
		require.Error(t, err, "config %q", config)
	}
}

func TestLogRegistrySetLogLevel(t *testing.T) {
	r, err := NewLogRegistry("")
	require.NoError(t, err)
	log := MakeLogrusLogFactoryStdOut(r)("ConnectionService").(*LogrusLogger)
	require.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())

	r.SetLogLevel("ConnectionService", logrus.DebugLevel)
	require.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())
	require.Equal(t, logrus.DebugLevel, r.GetLogLevel("ConnectionService"))
}

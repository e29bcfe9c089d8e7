package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("nonsense"))
}

func TestSetupWritesToFile(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	name := filepath.Join(t.TempDir(), "fittrack")
	Setup(SetupParams{LogFileName: name, LogLevel: "info", LogFormatJSON: true})
	logrus.WithField("session_id", "abc").Info("hello")

	data, err := os.ReadFile(name + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestSetupStdoutOnly(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	Setup(SetupParams{LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Equal(t, os.Stdout, logrus.StandardLogger().Out)
}

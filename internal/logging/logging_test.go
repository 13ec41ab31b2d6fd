package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crm-admin.log")

	log, closer, err := New(Config{Filename: path, Level: "debug"})
	require.NoError(t, err)

	log.WithField("entity", "clients").Debug("page loaded")
	require.NoError(t, closer.Close())

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "page loaded")
	assert.Contains(t, string(buf), "entity=clients")
}

func TestNew_Level(t *testing.T) {
	log, closer, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log, closer, err = New(Config{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

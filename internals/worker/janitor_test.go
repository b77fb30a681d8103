package worker

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitorSweep(t *testing.T) {
	root := t.TempDir()

	oldDir := filepath.Join(root, "task-old")
	newDir := filepath.Join(root, "task-new")
	require.NoError(t, os.Mkdir(oldDir, 0o755))
	require.NoError(t, os.Mkdir(newDir, 0o755))

	// A plain file next to the dirs is never touched.
	keepFile := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(keepFile, []byte("x"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, past, past))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	janitor := NewJanitor(root, 24*time.Hour, logger)
	janitor.Sweep()

	_, err := os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err), "expired dir should be removed")

	_, err = os.Stat(newDir)
	assert.NoError(t, err, "fresh dir should remain")

	_, err = os.Stat(keepFile)
	assert.NoError(t, err, "plain files are out of scope")
}

package worker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Janitor periodically removes per-task scratch directories that outlived
// the retention window. Output volumes are shared with the platform, so only
// entries directly under Root are considered.
type Janitor struct {
	Cron      *cron.Cron
	Root      string
	Retention time.Duration
	Logger    *log.Logger
}

func NewJanitor(root string, retention time.Duration, logger *log.Logger) *Janitor {
	return &Janitor{
		Cron:      cron.New(),
		Root:      root,
		Retention: retention,
		Logger:    logger,
	}
}

func (j *Janitor) Start(schedule string) error {
	if _, err := j.Cron.AddFunc(schedule, j.Sweep); err != nil {
		return err
	}
	j.Cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	j.Cron.Stop()
}

// Sweep runs one pass; the cron schedule calls it periodically.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.Root)
	if err != nil {
		j.Logger.WithError(err).Error("Failed to read scratch root")
		return
	}

	cutoff := time.Now().Add(-j.Retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.Root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.Logger.WithError(err).WithField("path", path).Error("Failed to remove scratch dir")
			continue
		}
		j.Logger.WithField("path", path).Info("Removed expired scratch dir")
	}
}

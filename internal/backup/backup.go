package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker periodically copies the sqlite database into a backups
// directory and prunes copies older than the retention window
type Worker struct {
	dbPath    string
	backupDir string
	interval  time.Duration
	retention time.Duration
}

func NewWorker(dbPath, backupDir string) *Worker {
	return &Worker{
		dbPath:    dbPath,
		backupDir: backupDir,
		interval:  24 * time.Hour,
		retention: 30 * 24 * time.Hour,
	}
}

// Start begins the backup loop
func (w *Worker) Start(ctx context.Context) {
	logger := log.With().Str("component", "backup_worker").Logger()
	logger.Info().Str("backup_dir", w.backupDir).Msg("starting backup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down backup worker")
			return
		case <-ticker.C:
			path, err := w.createBackup()
			if err != nil {
				logger.Error().Err(err).Msg("backup failed")
				continue
			}
			logger.Info().Str("path", path).Msg("backup created")

			if err := w.pruneOldBackups(); err != nil {
				logger.Warn().Err(err).Msg("backup pruning failed")
			}
		}
	}
}

func (w *Worker) createBackup() (string, error) {
	if _, err := os.Stat(w.dbPath); err != nil {
		return "", fmt.Errorf("database file not found: %w", err)
	}

	if err := os.MkdirAll(w.backupDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("trades_backup_%s.db", time.Now().Format("20060102_150405"))
	dest := filepath.Join(w.backupDir, name)

	if err := copyFile(w.dbPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (w *Worker) pruneOldBackups() error {
	threshold := time.Now().Add(-w.retention)

	entries, err := os.ReadDir(w.backupDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(filepath.Join(w.backupDir, entry.Name())); err != nil {
				log.Warn().Err(err).Str("file", entry.Name()).Msg("failed to remove old backup")
			}
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

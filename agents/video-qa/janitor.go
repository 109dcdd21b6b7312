package videoqa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-qa/agents/video-qa/transcript"
	"video-qa/shared/logging"
	"video-qa/shared/scheduler"
)

type ChunkPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountChunks(ctx context.Context, docID string) (int, error)
}

// JanitorMetrics summarizes one maintenance run.
type JanitorMetrics struct {
	FilesRemoved  int
	FileErrors    int
	ChunksDeleted int64
	// ChunksStored is -1 when no store is attached or counting failed.
	ChunksStored int
}

func (m JanitorMetrics) GetSummary() string {
	summary := fmt.Sprintf("removed %d stale audio files, pruned %d chunks", m.FilesRemoved, m.ChunksDeleted)
	if m.ChunksStored >= 0 {
		summary += fmt.Sprintf(", %d stored", m.ChunksStored)
	}
	return summary
}

// Janitor removes audio files left behind by crashed requests and prunes
// chunks past their retention.
type Janitor struct {
	tempDir   string
	maxAge    time.Duration
	pruner    ChunkPruner
	retention time.Duration
	now       func() time.Time
}

func NewJanitor(tempDir string, maxAge time.Duration, pruner ChunkPruner, retention time.Duration) *Janitor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Janitor{
		tempDir:   tempDir,
		maxAge:    maxAge,
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
	}
}

func (j *Janitor) Name() string {
	return "Janitor"
}

func (j *Janitor) RunOnce(ctx context.Context, events *scheduler.JobEvents) error {
	start := time.Now()
	metrics := JanitorMetrics{ChunksStored: -1}

	removed, failed, err := j.sweepTempFiles(ctx)
	if err != nil {
		if events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(start))
		}
		return err
	}
	metrics.FilesRemoved = removed
	metrics.FileErrors = failed
	if failed > 0 && events.OnPartialFailure != nil {
		events.OnPartialFailure(fmt.Errorf("could not remove %d temp files", failed), time.Since(start))
	}

	if j.pruner != nil && j.retention > 0 {
		n, err := j.pruner.DeleteOlderThan(ctx, j.now().Add(-j.retention))
		if err != nil {
			if events.OnCriticalFailure != nil {
				events.OnCriticalFailure(err, time.Since(start))
			}
			return err
		}
		metrics.ChunksDeleted = n
	}

	if j.pruner != nil {
		stored, err := j.pruner.CountChunks(ctx, "")
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to count stored chunks")
			if events.OnPartialFailure != nil {
				events.OnPartialFailure(err, time.Since(start))
			}
		} else {
			metrics.ChunksStored = stored
		}
	}

	if events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(start))
	}
	return nil
}

func (j *Janitor) sweepTempFiles(ctx context.Context) (removed, failed int, err error) {
	log := logging.FromContext(ctx)

	entries, err := os.ReadDir(j.tempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to list temp dir: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), transcript.AudioTempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.tempDir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("file", e.Name()).Warn("failed to remove stale audio file")
			failed++
			continue
		}
		removed++
	}
	return removed, failed, nil
}

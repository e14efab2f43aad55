package backfill

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/fileutil"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// prune removes compressed session directories older than the retention
// window. A directory is only removed when its movie exists and is
// non-empty, so the frames are never the last copy of a day.
func (s *Sweeper) prune(ctx context.Context, logger *slog.Logger) (int, error) {
	keepDays := s.cfg.Workflow.KeepDays
	if keepDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays)

	sessions, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, sess := range sessions {
		if sess.State != catalog.StateCompressed {
			continue
		}
		date, err := sessiondir.ParseKey(sess.Key)
		if err != nil || !date.Before(cutoff) {
			continue
		}
		movie := sessiondir.MoviePath(s.cfg.Paths.VideoDir, date, s.cfg.Movie.VideoType)
		if !fileutil.NonEmptyFile(movie) {
			logger.Warn("keeping expired session, movie missing",
				logging.String(logging.FieldSession, sess.Key))
			continue
		}
		if err := os.RemoveAll(sess.DirPath); err != nil {
			return pruned, err
		}
		removeEmptyParents(sess.DirPath, s.cfg.Paths.ShotDir)
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			return pruned, err
		}
		pruned++
		logger.Info("pruned expired session",
			logging.String(logging.FieldSession, sess.Key),
			logging.String(logging.FieldDirectory, sess.DirPath))
	}
	return pruned, nil
}

// removeEmptyParents drops now-empty month and year directories, stopping
// at the capture root.
func removeEmptyParents(dir, root string) {
	for i := 0; i < 2; i++ {
		dir = filepath.Dir(dir)
		if dir == root || len(dir) <= len(root) {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
	}
}

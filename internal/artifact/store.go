// Package artifact persists synthesized audio to disk and serves it back by
// identifier. Artifacts are short-lived; a background sweep removes files
// older than the configured age.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/krishisetu/agent-gateway/internal/observability"
)

const artifactExt = ".mp3"

// Store writes audio artifacts to a directory and retrieves them by id.
type Store struct {
	dir    string
	maxAge time.Duration
	logger zerolog.Logger
	cron   *cron.Cron
}

// NewStore creates the artifact directory if needed and returns a store.
func NewStore(dir string, maxAge time.Duration, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		maxAge: maxAge,
		logger: logger.With().Str("component", "artifact_store").Logger(),
	}, nil
}

// Put persists audio bytes under a fresh identifier and returns the id.
func (s *Store) Put(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty artifact")
	}
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+artifactExt)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", id, err)
	}
	s.logger.Debug().Str("artifact_id", id).Int("bytes", len(audio)).Msg("artifact stored")
	return id, nil
}

// Open returns the file for an artifact id. Ids that are not bare UUIDs are
// rejected so a crafted id cannot escape the artifact directory.
func (s *Store) Open(id string) (*os.File, error) {
	if !validID(id) {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.dir, id+artifactExt))
}

// URL returns the retrieval path for an artifact id relative to the server
// base URL.
func (s *Store) URL(id string) string {
	return "/api/audio/" + id
}

// Sweep deletes artifacts older than the configured age and returns how many
// were removed.
func (s *Store) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error().Err(err).Msg("artifact sweep failed to list directory")
		return 0
	}
	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		observability.RecordArtifactsSwept(removed)
		s.logger.Info().Int("removed", removed).Msg("swept expired artifacts")
	}
	return removed
}

// StartSweeper schedules Sweep at the given interval. Stop with StopSweeper.
func (s *Store) StartSweeper(interval time.Duration) error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("scheduling artifact sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Dur("interval", interval).Msg("artifact sweeper started")
	return nil
}

// StopSweeper halts the background sweep. Safe to call when never started.
func (s *Store) StopSweeper() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

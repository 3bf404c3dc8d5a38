package service

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// ArtifactLifecycle removes the files produced by a previous run.
type ArtifactLifecycle struct {
	paths  []string
	logger zerolog.Logger
}

// NewArtifactLifecycle builds a lifecycle manager for the given artifact paths.
func NewArtifactLifecycle(paths []string, logger zerolog.Logger) *ArtifactLifecycle {
	return &ArtifactLifecycle{
		paths:  append([]string(nil), paths...),
		logger: logger.With().Str("component", "artifact_lifecycle").Logger(),
	}
}

// Paths returns the managed artifact paths.
func (a *ArtifactLifecycle) Paths() []string {
	return append([]string(nil), a.paths...)
}

// Reset deletes every managed artifact that exists and returns the deleted
// paths. Missing files are skipped; other failures are logged.
func (a *ArtifactLifecycle) Reset() []string {
	deleted := make([]string, 0, len(a.paths))
	for _, path := range a.paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			deleted = append(deleted, path)
			a.logger.Info().Str("path", path).Msg("deleted previous artifact")
		case errors.Is(err, fs.ErrNotExist):
			// already clean
		default:
			a.logger.Error().Err(err).Str("path", path).Msg("failed to delete previous artifact")
		}
	}
	return deleted
}

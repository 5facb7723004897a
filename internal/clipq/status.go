package clipq

import (
	"fmt"
	"path/filepath"

	"clipq/internal/model"
)

// ArtifactStatus represents the ledger state of a single input file.
type ArtifactStatus struct {
	RelativePath string
	Fingerprint  string
	IsProcessed  bool
	Record       *model.LedgerRecord // set when IsProcessed
}

// GetStatus returns the ledger state of the video files under dir.
// If recursive is true, files in subdirectories are included.
func (s *Service) GetStatus(dir *Path, recursive bool) ([]*ArtifactStatus, error) {
	s.logger.Debug("computing status", "path", dir.String())

	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	files, err := s.fsmgr.FindFiles(dir, recursive)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}

	statuses := make([]*ArtifactStatus, 0, len(files))
	for _, f := range files {
		relPath, err := filepath.Rel(dir.String(), f.String())
		if err != nil {
			return nil, fmt.Errorf("computing relative path: %w", err)
		}

		fp, err := NewArtifact(f.String()).Fingerprint(s.fsmgr)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting %s: %w", relPath, err)
		}

		rec, err := s.database.FindRecord(fp)
		if err != nil {
			return nil, fmt.Errorf("getting status for %s: %w", relPath, err)
		}

		statuses = append(statuses, &ArtifactStatus{
			RelativePath: relPath,
			Fingerprint:  fp,
			IsProcessed:  rec != nil,
			Record:       rec,
		})
	}

	return statuses, nil
}

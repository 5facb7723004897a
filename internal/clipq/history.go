package clipq

import (
	"fmt"

	"clipq/internal/model"
)

// GetHistory returns the most recent batch runs, ordered newest first.
func (s *Service) GetHistory(limit int) ([]*model.BatchRun, error) {
	runs, err := s.database.ListBatchRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing batch runs: %w", err)
	}
	return runs, nil
}

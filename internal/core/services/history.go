package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// ErrHistoryDisabled is returned when no run store is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

// HistoryService reads recorded runs.
type HistoryService struct {
	runs driven.RunStore
}

// NewHistoryService creates a history service. A nil store disables history.
func NewHistoryService(runs driven.RunStore) *HistoryService {
	return &HistoryService{runs: runs}
}

// Enabled reports whether a run store is configured.
func (s *HistoryService) Enabled() bool {
	return s.runs != nil
}

// List returns recent runs, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its document results.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

package clipq

import (
	"context"
	"fmt"

	"clipq/internal/model"
)

// Service is the orchestration layer that coordinates across all components
// to perform the high-level operations needed by the CLI.
type Service struct {
	database Database
	fsmgr    FilesystemManager
	sessions SessionProvider
	pipeline PublishPipeline
	observer Observer
	logger   Logger
	clock    Clock
	idgen    IDGenerator
}

// NewService creates a new Service with the provided dependencies.
func NewService(database Database, fsmgr FilesystemManager, sessions SessionProvider, pipeline PublishPipeline, observer Observer, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		database: database,
		fsmgr:    fsmgr,
		sessions: sessions,
		pipeline: pipeline,
		observer: observer,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
	}
}

// RunBatch enumerates the video files under inputDir and publishes them
// through the given accounts.
func (s *Service) RunBatch(ctx context.Context, inputDir *Path, recursive bool, accounts []model.Account, opts BatchOptions) (*Summary, error) {
	if !inputDir.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", inputDir.String())
	}

	files, err := s.fsmgr.FindFiles(inputDir, recursive)
	if err != nil {
		return nil, fmt.Errorf("finding input files: %w", err)
	}

	artifacts := make([]*Artifact, len(files))
	for i, f := range files {
		artifacts[i] = NewArtifact(f.String())
	}
	s.logger.Debug("input enumerated", "dir", inputDir.String(), "files", len(artifacts))

	sched := NewScheduler(s.database, NewQuotaTracker(s.database, s.clock), s.sessions, s.pipeline, s.fsmgr, s.observer, s.logger, s.clock, s.idgen)
	return sched.Run(ctx, artifacts, accounts, opts)
}

// GetQuota returns the current-period quota snapshot of every account.
func (s *Service) GetQuota(accounts []model.Account, target int) ([]model.QuotaSnapshot, error) {
	tracker := NewQuotaTracker(s.database, s.clock)
	snaps := make([]model.QuotaSnapshot, 0, len(accounts))
	for _, acct := range accounts {
		snap, err := tracker.Progress(acct.ID, target)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// GetLedger returns the most recent ledger records, newest first.
func (s *Service) GetLedger(limit int) ([]*model.LedgerRecord, error) {
	recs, err := s.database.ListRecords(limit)
	if err != nil {
		return nil, fmt.Errorf("listing ledger records: %w", err)
	}
	return recs, nil
}

// GetRecord returns the ledger record for a fingerprint.
func (s *Service) GetRecord(fingerprint string) (*model.LedgerRecord, error) {
	rec, err := s.database.FindRecord(fingerprint)
	if err != nil {
		return nil, fmt.Errorf("finding ledger record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("no ledger record for fingerprint %s", fingerprint)
	}
	return rec, nil
}

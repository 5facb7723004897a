package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"clipq/internal/clipq"
	"clipq/internal/config"
	"clipq/internal/console"
	"clipq/internal/database"
	"clipq/internal/encryption"
	"clipq/internal/fs"
	"clipq/internal/hooks"
	"clipq/internal/model"
	"clipq/internal/vault"
)

// Options adjusts how an App is wired. The zero value uses the configured
// hooks and prints batch events to stdout.
type Options struct {
	// Operation names the CLI command being run, e.g. "run" or "status".
	Operation string
	// Out receives batch events. Defaults to os.Stdout.
	Out io.Writer
	// Stderr, when set, also receives every log line.
	Stderr  io.Writer
	Verbose bool

	// Sessions and Pipeline replace the configured hooks when both are set.
	Sessions clipq.SessionProvider
	Pipeline clipq.PublishPipeline
}

// App is the application layer between the CLI and clipq.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the ledger lifecycle on Close.
type App struct {
	cfg       *config.Config
	db        clipq.Database
	vault     clipq.Vault // nil when no vault is configured
	fsmgr     clipq.FilesystemManager
	encryptor clipq.Encryptor
	service   *clipq.Service
	observer  *console.Observer
	logger    clipq.Logger
	hooksErr  error
	op        *BatchOperation
	lock      *RunLock
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// The caller must call Close when done.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore, cfg.Filesystem.Extensions)

	var v clipq.Vault
	if len(cfg.Vaults) > 0 {
		var err error
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run `clipq db migrate`): %w", err)
	}

	// A newer snapshot in the vault means another host published since this
	// ledger was last synced. Running now could publish content twice.
	if v != nil {
		if err := checkSnapshotVersion(db, v, cfg.HostID, snapshotName(enc)); err != nil {
			db.Close()
			return nil, err
		}
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.BaseDir, "log")
	}
	batchID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(logDir, batchID, opts.Stderr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	sessions, pipeline := opts.Sessions, opts.Pipeline
	var hooksErr error
	if sessions == nil || pipeline == nil {
		sessions, pipeline, hooksErr = hooks.NewFromConfig(cfg.Hooks, logger)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	obs := console.NewObserver(out, opts.Verbose)

	svc := clipq.NewService(db, fsmgr, sessions, pipeline, obs, logger, clipq.RealClock{}, clipq.UUIDGenerator{})

	return &App{
		cfg:       cfg,
		db:        db,
		vault:     v,
		fsmgr:     fsmgr,
		encryptor: enc,
		service:   svc,
		observer:  obs,
		logger:    logger,
		hooksErr:  hooksErr,
		op:        NewBatchOperation(opts.Operation, ""),
		logFile:   logFile,
	}, nil
}

func checkSnapshotVersion(db clipq.Database, v clipq.Vault, hostID, name string) error {
	remoteVersion, err := v.GetSnapshotVersion(hostID, name)
	if err != nil {
		return fmt.Errorf("checking remote ledger version: %w", err)
	}

	localMax, err := db.MaxBatchRunID()
	if err != nil {
		return fmt.Errorf("checking local ledger version: %w", err)
	}

	if remoteVersion > localMax {
		return fmt.Errorf("local ledger is behind vault %s (local=%d, remote=%d): run `clipq ledger restore`",
			v.Name(), localMax, remoteVersion)
	}
	return nil
}

// snapshotName is the vault object name of the ledger snapshot.
func snapshotName(enc clipq.Encryptor) string {
	return database.LedgerFileName + enc.Suffix()
}

// accountsFromConfig converts configured accounts once, in config order.
func accountsFromConfig(accts []config.AccountConfig) []model.Account {
	out := make([]model.Account, 0, len(accts))
	for _, a := range accts {
		out = append(out, model.Account{ID: a.ID, Name: a.Name, Status: model.AccountEligible})
	}
	return out
}

// Accounts returns the configured accounts.
func (a *App) Accounts() []model.Account {
	return accountsFromConfig(a.cfg.Accounts)
}

// persistOperation saves the batch operation to the database, giving it an auto-increment ID.
// This should only be called for ledger-mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	run, err := a.db.CreateBatchRun(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting batch run: %w", err)
	}
	a.op.ID = run.ID
	return nil
}

// lockLedger takes the run lock for on-disk ledgers. In-memory ledgers are
// private to this process and need none.
func (a *App) lockLedger() error {
	if a.lock != nil || a.cfg.Database.Type != "sqlite" {
		return nil
	}
	lock, err := AcquireRunLock(a.cfg.Database.DataDir)
	if err != nil {
		return err
	}
	a.lock = lock
	return nil
}

// RunBatch publishes the video files under rawInput (the configured input_dir
// when empty). Zero fields in opts fall back to the [batch] config section.
func (a *App) RunBatch(ctx context.Context, rawInput string, recursive bool, opts clipq.BatchOptions) (*clipq.Summary, error) {
	if a.hooksErr != nil {
		return nil, fmt.Errorf("configuring hooks: %w", a.hooksErr)
	}
	if rawInput == "" {
		rawInput = a.cfg.InputDir
	}
	if rawInput == "" {
		return nil, fmt.Errorf("no input directory given and input_dir is not configured")
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = a.cfg.Batch.Concurrency
	}
	if opts.Target == 0 {
		opts.Target = a.cfg.Batch.Target
	}

	accounts := a.Accounts()
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no [[accounts]] configured: %w", clipq.ErrNoAccounts)
	}

	if a.vault != nil {
		if !a.encryptor.IsConfigured() {
			return nil, fmt.Errorf("encryption keys are not initialized: run `clipq keys init`")
		}
		if err := a.vault.ValidateSetup(); err != nil {
			return nil, fmt.Errorf("vault %s is not usable: %w", a.vault.Name(), err)
		}
	}

	input, err := a.fsmgr.Resolve(rawInput)
	if err != nil {
		return nil, fmt.Errorf("resolving input directory: %w", err)
	}

	if err := a.lockLedger(); err != nil {
		return nil, err
	}

	a.op.Parameters = fmt.Sprintf("input=%s recursive=%t concurrency=%d target=%d",
		input.String(), recursive, opts.Concurrency, opts.Target)
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	summary, err := a.service.RunBatch(ctx, input, recursive, accounts, opts)
	a.op.Finish(summary, err)
	return summary, err
}

// Published returns per-account publish counts observed during this run.
func (a *App) Published() map[string]int {
	return a.observer.Published()
}

// GetStatus returns the ledger state of the video files under rawPath
// (the configured input_dir when empty).
func (a *App) GetStatus(rawPath string, recursive bool) ([]*clipq.ArtifactStatus, error) {
	if rawPath == "" {
		rawPath = a.cfg.InputDir
	}
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.GetStatus(p, recursive)
}

// GetLedger returns the most recent ledger records.
func (a *App) GetLedger(limit int) ([]*model.LedgerRecord, error) {
	return a.service.GetLedger(limit)
}

// GetRecord returns the ledger record for a fingerprint.
func (a *App) GetRecord(fingerprint string) (*model.LedgerRecord, error) {
	return a.service.GetRecord(fingerprint)
}

// GetQuota returns today's quota state of every configured account.
func (a *App) GetQuota() ([]model.QuotaSnapshot, error) {
	return a.service.GetQuota(a.Accounts(), a.cfg.Batch.Target)
}

// GetHistory returns the most recent batch runs.
func (a *App) GetHistory(limit int) ([]*model.BatchRun, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the batch run record, snapshots the
// ledger, and uploads it to the vault.
// For non-persisted operations: just closes the database.
func (a *App) Close() error {
	var firstErr error
	setErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishBatchRun(a.op.ID, a.op.Status, a.op.Summary); err != nil {
			setErr(fmt.Errorf("finishing batch run: %w", err))
		}

		var tmpPath string
		if a.vault != nil {
			path, err := a.snapshotLedger()
			if err != nil {
				setErr(err)
			}
			tmpPath = path
		}

		if err := a.db.Close(); err != nil {
			setErr(fmt.Errorf("closing database: %w", err))
		}

		// Upload the ledger snapshot with version = batch run ID.
		if tmpPath != "" {
			if err := a.uploadSnapshot(tmpPath, a.op.ID); err != nil {
				setErr(err)
			}
			os.Remove(tmpPath)
		}
	} else {
		if err := a.db.Close(); err != nil {
			setErr(fmt.Errorf("closing database: %w", err))
		}
	}

	if err := a.lock.Release(); err != nil {
		setErr(err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

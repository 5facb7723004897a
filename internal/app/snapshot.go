package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"clipq/internal/clipq"
	"clipq/internal/config"
	"clipq/internal/database"
	"clipq/internal/encryption"
	"clipq/internal/vault"
)

// snapshotLedger writes a consistent copy of the ledger to a temp file.
// It returns an empty path when the copy could not be made.
func (a *App) snapshotLedger() (string, error) {
	tmpFile, err := os.CreateTemp("", "clipq-ledger-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for ledger snapshot: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if err := a.db.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("snapshotting ledger: %w", err)
	}
	return tmpPath, nil
}

// uploadSnapshot encrypts the snapshot at path and stores it in the vault.
func (a *App) uploadSnapshot(path string, version int64) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening ledger snapshot for upload: %w", err)
	}
	defer src.Close()

	encFile, err := os.CreateTemp("", "clipq-ledger-*.enc")
	if err != nil {
		return fmt.Errorf("creating temp file for encrypted snapshot: %w", err)
	}
	defer os.Remove(encFile.Name())
	defer encFile.Close()

	if err := a.encryptor.Encrypt(src, encFile); err != nil {
		return fmt.Errorf("encrypting ledger snapshot: %w", err)
	}

	info, err := encFile.Stat()
	if err != nil {
		return fmt.Errorf("stat encrypted snapshot: %w", err)
	}
	if _, err := encFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding encrypted snapshot: %w", err)
	}

	name := snapshotName(a.encryptor)
	if err := a.vault.PutSnapshot(a.cfg.HostID, name, encFile, info.Size(), version); err != nil {
		return fmt.Errorf("uploading ledger snapshot to vault %s: %w", a.vault.Name(), err)
	}
	a.logger.Info("ledger snapshot uploaded", "vault", a.vault.Name(), "name", name, "version", version, "size", info.Size())
	return nil
}

// RestoreLedger replaces the local ledger with the newest snapshot in the
// first configured vault and returns the snapshot's version.
// passphrase is only called when the snapshot is encrypted.
func RestoreLedger(cfg *config.Config, passphrase func() (string, error)) (int64, error) {
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("ledger restore requires a sqlite database, got %q", cfg.Database.Type)
	}
	if len(cfg.Vaults) == 0 {
		return 0, fmt.Errorf("no vaults configured")
	}

	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}

	name := snapshotName(enc)
	version, err := v.GetSnapshotVersion(cfg.HostID, name)
	if err != nil {
		return 0, fmt.Errorf("checking remote ledger version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("vault %s has no ledger snapshot for host %s", v.Name(), cfg.HostID)
	}

	lock, err := AcquireRunLock(cfg.Database.DataDir)
	if err != nil {
		return 0, err
	}
	defer lock.Release()

	tmp, err := os.CreateTemp(cfg.Database.DataDir, "restore-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating restore file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if enc.Suffix() == "" {
		err = v.GetSnapshot(cfg.HostID, name, tmp)
	} else {
		err = fetchDecrypted(v, enc, cfg.HostID, name, passphrase, tmp)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("downloading ledger snapshot: %w", err)
	}

	// Older snapshots may predate later migrations.
	restored, err := database.NewSQLiteDatabase(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("opening restored ledger: %w", err)
	}
	if err := restored.Migrate(); err != nil {
		restored.Close()
		return 0, fmt.Errorf("migrating restored ledger: %w", err)
	}
	if err := restored.Close(); err != nil {
		return 0, fmt.Errorf("closing restored ledger: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(cfg.Database.DataDir, database.LedgerFileName)); err != nil {
		return 0, fmt.Errorf("replacing local ledger: %w", err)
	}
	return version, nil
}

// fetchDecrypted streams a snapshot out of the vault through the unlocked key into w.
func fetchDecrypted(v clipq.Vault, enc clipq.Encryptor, hostID, name string, passphrase func() (string, error), w io.Writer) error {
	if passphrase == nil {
		return fmt.Errorf("snapshot %s is encrypted and no passphrase was provided", name)
	}
	pass, err := passphrase()
	if err != nil {
		return fmt.Errorf("reading passphrase: %w", err)
	}
	dc, err := enc.Unlock(pass)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(v.GetSnapshot(hostID, name, pw))
	}()
	err = dc.Decrypt(pr, w)
	pr.Close()
	return err
}

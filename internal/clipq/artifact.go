package clipq

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// catalogIDPattern matches the numeric catalog identifier embedded in file names,
// e.g. "1729384756_summer_dress.mp4".
var catalogIDPattern = regexp.MustCompile(`[0-9]{6,}`)

// Artifact is one video file to be published exactly once.
// The content fingerprint is computed on first use and cached on success.
type Artifact struct {
	path      string
	name      string
	catalogID string

	mu          sync.Mutex
	fingerprint string
}

// NewArtifact creates an artifact for the file at absPath.
func NewArtifact(absPath string) *Artifact {
	name := filepath.Base(absPath)
	return &Artifact{
		path:      absPath,
		name:      name,
		catalogID: CatalogIDFromName(name),
	}
}

// Path returns the absolute location of the backing file.
func (a *Artifact) Path() string { return a.path }

// Name returns the file's base name.
func (a *Artifact) Name() string { return a.name }

// CatalogID returns the identifier derived from the file name.
func (a *Artifact) CatalogID() string { return a.catalogID }

// Fingerprint returns the SHA-256 of the artifact's full content as lowercase hex.
func (a *Artifact) Fingerprint(fsmgr FilesystemManager) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fingerprint != "" {
		return a.fingerprint, nil
	}

	r, err := fsmgr.Open(a.path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", a.path, err)
	}
	defer r.Close()

	sum, err := HashContent(r)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", a.path, err)
	}
	a.fingerprint = sum
	return sum, nil
}

// HashContent streams r through SHA-256 and returns the lowercase hex digest.
func HashContent(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CatalogIDFromName extracts the catalog identifier from a file name: the first
// run of six or more digits in the stem, or the stem itself when there is none.
func CatalogIDFromName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if id := catalogIDPattern.FindString(stem); id != "" {
		return id
	}
	return stem
}

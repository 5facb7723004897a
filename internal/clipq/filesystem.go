package clipq

import "io"

// FilesystemManager provides an interface for filesystem operations.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	// It resolves the path to an absolute path, stats it, and validates
	// it's a regular file or directory (not a symlink, device, etc.).
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(absPath string) (io.ReadCloser, error)

	// FindFiles discovers candidate video files under a directory, applying
	// ignore patterns and the extension filter.
	FindFiles(dir *Path, recursive bool) ([]*Path, error)

	// Remove deletes a file. Removing a file that no longer exists is not an error.
	Remove(absPath string) error
}

package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FileExists reports whether filename exists. Only a missing file is
// (false, nil). Any other stat failure, or a directory at filename, is an
// error.
func FileExists(filename string) (bool, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error checking file %s: %w", filename, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", filename)
	}
	return true, nil
}

// ReadDataFile memory maps the file and returns a private copy of its
// contents. An empty file yields an empty slice.
func ReadDataFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening data file %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	fileSize := int(stat.Size())

	// mmap rejects zero-length mappings
	if fileSize == 0 {
		return []byte{}, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, fileSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to memory map file: %w", err)
	}
	defer unix.Munmap(data)

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteFileAtomic writes data to a temp file in the target's directory,
// syncs it, renames it over path and syncs the directory.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempFilePath := tempFile.Name()

	// no-op once the rename succeeded
	defer os.Remove(tempFilePath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFilePath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return SyncDir(dir)
}

// SyncDir fsyncs a directory so a rename inside it is durable. File
// systems that cannot sync directories are not an error.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil && !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOTSUP) {
		return fmt.Errorf("failed to sync directory %s: %w", dir, err)
	}
	return nil
}

// ErrFileLocked is returned by LockFile when another handle holds the lock.
var ErrFileLocked = errors.New("file is locked by another process")

// LockFile opens (creating if needed) path and takes a non-blocking
// exclusive flock on it. The returned file must stay open for as long as
// the lock is needed; UnlockFile releases it.
func LockFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("error opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrFileLocked, path)
		}
		return nil, fmt.Errorf("error locking %s: %w", path, err)
	}

	return file, nil
}

// UnlockFile releases a lock taken with LockFile and closes the handle.
func UnlockFile(file *os.File) error {
	if file == nil {
		return nil
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_UN); err != nil {
		file.Close()
		return fmt.Errorf("error unlocking %s: %w", file.Name(), err)
	}
	return file.Close()
}

// Package utils provides file and path helpers shared by the state store,
// the event log, and the CLI.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RenameWithRetry performs an atomic file rename with retry logic for Windows.
// On Windows, file renames can fail with "Access is denied" when another process
// (an editor, a status watcher) has a handle on the target file. This function
// retries with exponential backoff to handle transient locking.
//
// Parameters:
//   - oldPath: source file path
//   - newPath: destination file path
//   - maxRetries: maximum number of retry attempts (0 = no retries, try once)
//   - initialDelay: initial delay between retries (doubles each retry)
//
// Returns nil on success, or the last error if all retries failed.
func RenameWithRetry(oldPath, newPath string, maxRetries int, initialDelay time.Duration) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	retries := uint64(maxRetries) // #nosec G115 -- maxRetries is a small constant
	if maxRetries < 0 || runtime.GOOS != "windows" {
		// On non-Windows, don't retry - the error is likely permanent
		retries = 0
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return os.Rename(oldPath, newPath)
	}, backoff.WithMaxRetries(exp, retries))
	if err != nil {
		return fmt.Errorf("rename failed after %d attempt(s): %w", attempts, err)
	}
	return nil
}

// DefaultRenameRetry calls RenameWithRetry with sensible defaults for Windows:
// 3 retries with 100ms initial delay (100ms, 200ms, 400ms = 700ms max wait)
func DefaultRenameRetry(oldPath, newPath string) error {
	return RenameWithRetry(oldPath, newPath, 3, 100*time.Millisecond)
}

// WriteFileAtomic replaces path with data in one step: the bytes go to a temp
// file in the same directory, which is synced, closed, and renamed over path.
// Readers see either the old document or the new one, never a torn write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Create temp file in same directory for atomic rename
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath) // Clean up temp file on error
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	target, err := ResolveForWrite(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := DefaultRenameRetry(tempPath, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

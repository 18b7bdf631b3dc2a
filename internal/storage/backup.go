package storage

import (
	"fmt"
	"os"
	"time"
)

// backupTimeFormat has second-level resolution; repeated runs within one
// second collide on the backup name, which is treated as an error so a
// prior backup is never overwritten.
const backupTimeFormat = "20060102_150405"

// Backup copies the file at path to a timestamped sibling
// (path + ".backup_" + YYYYMMDD_HHMMSS) before any mutation. A missing
// original is not an error; it simply means there is nothing to back up.
func Backup(path string) (string, error) {
	return backupAt(path, time.Now())
}

func backupAt(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	backupPath := path + ".backup_" + now.Format(backupTimeFormat)
	f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("backup %s already exists", backupPath)
		}
		return "", fmt.Errorf("failed to create %s: %w", backupPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to write %s: %w", backupPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to close %s: %w", backupPath, err)
	}
	return backupPath, nil
}

// Restore copies the backup back over the original path. It is used only
// when persisting the updated document failed, to leave the filesystem
// in its pre-run state.
func Restore(backupPath, path string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backupPath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	return nil
}

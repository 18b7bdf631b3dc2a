// Package storage reads, mutates and persists the application's
// storage.json document, plus the timestamped backups made before any
// mutation.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ultrasev/cursor-reset/internal/cursor"
)

// Load reads the JSON document at path. A missing file yields an empty
// document. An unreadable file or invalid JSON also yields an empty
// document, with corrupt set so the caller can surface a warning; a
// broken prior file never aborts the run.
func Load(path string) (doc map[string]interface{}, corrupt bool) {
	doc = map[string]interface{}{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, false
		}
		return doc, true
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return map[string]interface{}{}, true
	}
	return doc, false
}

// Apply returns a copy of doc with exactly the identifier fields
// overwritten. Every other key is carried over unchanged.
func Apply(doc map[string]interface{}, ids cursor.IdentifierSet, schema cursor.KeySchema) map[string]interface{} {
	updated := make(map[string]interface{}, len(doc)+3)
	for k, v := range doc {
		updated[k] = v
	}

	switch schema {
	case cursor.SchemaNested:
		telemetry := map[string]interface{}{}
		if prev, ok := updated[cursor.KeyTelemetry].(map[string]interface{}); ok {
			for k, v := range prev {
				telemetry[k] = v
			}
		}
		telemetry[cursor.SubKeyMachineID] = ids.MachineID
		telemetry[cursor.SubKeyMacMachineID] = ids.MacMachineID
		telemetry[cursor.SubKeyDevDeviceID] = ids.DevDeviceID
		updated[cursor.KeyTelemetry] = telemetry
	default:
		updated[cursor.KeyMachineID] = ids.MachineID
		updated[cursor.KeyMacMachineID] = ids.MacMachineID
		updated[cursor.KeyDevDeviceID] = ids.DevDeviceID
	}
	return updated
}

// Previous extracts the current identifier values from doc for
// before/after reporting. Missing or non-string fields come back empty.
func Previous(doc map[string]interface{}, schema cursor.KeySchema) cursor.IdentifierSet {
	var ids cursor.IdentifierSet
	switch schema {
	case cursor.SchemaNested:
		telemetry, _ := doc[cursor.KeyTelemetry].(map[string]interface{})
		ids.MachineID, _ = telemetry[cursor.SubKeyMachineID].(string)
		ids.MacMachineID, _ = telemetry[cursor.SubKeyMacMachineID].(string)
		ids.DevDeviceID, _ = telemetry[cursor.SubKeyDevDeviceID].(string)
	default:
		ids.MachineID, _ = doc[cursor.KeyMachineID].(string)
		ids.MacMachineID, _ = doc[cursor.KeyMacMachineID].(string)
		ids.DevDeviceID, _ = doc[cursor.KeyDevDeviceID].(string)
	}
	return ids
}

// Save persists doc to path as 2-space-indented JSON, creating parent
// directories as needed. The document is written to a temporary file in
// the same directory and renamed into place, so a mid-write abort never
// leaves a partially written storage file.
func Save(path string, doc map[string]interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".storage-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set mode on %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

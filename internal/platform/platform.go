// Package platform resolves the host platform and the storage file
// location. The platform is probed once at startup; everything else is
// pure path computation over the resolved value and an environment
// lookup capability, so tests never touch the real environment.
package platform

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ultrasev/cursor-reset/internal/cursor"
)

// Platform identifies a supported host operating system.
type Platform int

const (
	Unknown Platform = iota
	Windows
	Darwin
	Linux
)

// Detect probes the host platform. Unrecognized systems map to Unknown,
// which StoragePath rejects.
func Detect() Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	case "linux":
		return Linux
	}
	return Unknown
}

func (p Platform) String() string {
	switch p {
	case Windows:
		return "windows"
	case Darwin:
		return "darwin"
	case Linux:
		return "linux"
	}
	return "unknown"
}

// EnvLookup reports the value of an environment variable and whether it
// is set. os.LookupEnv satisfies it; tests supply maps.
type EnvLookup func(name string) (string, bool)

// OSLookup is the EnvLookup backed by the process environment.
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// StoragePath computes the absolute path of the application's storage
// file for the given platform. It has no side effects.
func StoragePath(p Platform, appName string, lookup EnvLookup) (string, error) {
	switch p {
	case Windows:
		appData, ok := lookup("APPDATA")
		if !ok || appData == "" {
			return "", cursor.Errorf(cursor.KindConfigLocation, "APPDATA is not set")
		}
		return filepath.Join(appData, appName, "User", "globalStorage", "storage.json"), nil
	case Darwin:
		home, ok := lookup("HOME")
		if !ok || home == "" {
			return "", cursor.Errorf(cursor.KindConfigLocation, "HOME is not set")
		}
		return filepath.Join(home, "Library", "Application Support", appName, "User", "globalStorage", "storage.json"), nil
	case Linux:
		home, ok := lookup("HOME")
		if !ok || home == "" {
			return "", cursor.Errorf(cursor.KindConfigLocation, "HOME is not set")
		}
		return filepath.Join(home, ".config", appName, "User", "globalStorage", "storage.json"), nil
	}
	return "", cursor.Errorf(cursor.KindUnsupportedPlatform, "no storage path mapping for %q", runtime.GOOS)
}

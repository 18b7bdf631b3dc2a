// Package reset drives the identifier reset pipeline: locate the
// storage file, back it up, load it, generate fresh identifiers, apply
// them and persist the result.
package reset

import (
	"fmt"
	"io"

	"git.sr.ht/~spc/go-log"

	"github.com/ultrasev/cursor-reset/internal/cursor"
	"github.com/ultrasev/cursor-reset/internal/idgen"
	"github.com/ultrasev/cursor-reset/internal/platform"
	"github.com/ultrasev/cursor-reset/internal/storage"
)

// Options configures a reset run. Zero values select the defaults used
// by the CLI: the detected platform, the process environment, the
// "Cursor" application directory and 32-character hex identifiers.
type Options struct {
	// Platform the storage path is resolved for.
	Platform platform.Platform
	// Env supplies environment variables to the locator.
	Env platform.EnvLookup
	// Path overrides the resolved storage file location entirely.
	Path string
	// AppName is the application directory name in the storage path.
	AppName string
	// HexLength is the length of the generated machine identifiers.
	HexLength int
	// Schema selects dotted or nested identifier keys.
	Schema cursor.KeySchema
	// Random is the randomness source; nil selects crypto/rand.
	Random io.Reader
	// DryRun skips the backup and the final write.
	DryRun bool
}

// Result describes a completed run.
type Result struct {
	// Path of the storage file that was (or would have been) updated.
	Path string
	// BackupPath of the pre-mutation copy; empty when the original did
	// not exist or the run was a dry run.
	BackupPath string
	// CorruptConfig is set when the prior file existed but could not be
	// parsed and the run started from an empty document.
	CorruptConfig bool
	// Previous holds the identifier values found before the reset.
	Previous cursor.IdentifierSet
	// New holds the freshly generated identifier values.
	New cursor.IdentifierSet
}

// Resetter runs the reset pipeline. One Resetter performs one
// single-threaded read-modify-write pass over the storage file.
type Resetter struct {
	opts    Options
	persist func(path string, doc map[string]interface{}) error
}

// New returns a Resetter for the given options, filling in defaults.
func New(opts Options) *Resetter {
	if opts.Platform == platform.Unknown && opts.Path == "" {
		opts.Platform = platform.Detect()
	}
	if opts.Env == nil {
		opts.Env = platform.OSLookup
	}
	if opts.AppName == "" {
		opts.AppName = "Cursor"
	}
	if opts.HexLength == 0 {
		opts.HexLength = idgen.DefaultHexLength
	}
	return &Resetter{opts: opts, persist: storage.Save}
}

// locate resolves the storage file path from the options.
func (r *Resetter) locate() (string, error) {
	if r.opts.Path != "" {
		return r.opts.Path, nil
	}
	return platform.StoragePath(r.opts.Platform, r.opts.AppName, r.opts.Env)
}

// Inspect reads the current identifier values without mutating anything.
func (r *Resetter) Inspect() (*Result, error) {
	path, err := r.locate()
	if err != nil {
		return nil, err
	}
	doc, corrupt := storage.Load(path)
	return &Result{
		Path:          path,
		CorruptConfig: corrupt,
		Previous:      storage.Previous(doc, r.opts.Schema),
	}, nil
}

// Run executes the pipeline. On a write failure after a backup was
// taken, the original file is restored before the error is returned, so
// the storage file is always either fully updated or untouched.
func (r *Resetter) Run() (*Result, error) {
	path, err := r.locate()
	if err != nil {
		return nil, err
	}
	log.Debugf("storage file: %v", path)
	result := &Result{Path: path}

	if !r.opts.DryRun {
		backupPath, err := storage.Backup(path)
		if err != nil {
			return nil, cursor.Wrap(cursor.KindBackup, err, "could not back up storage file")
		}
		if backupPath != "" {
			log.Infof("created backup: %v", backupPath)
		}
		result.BackupPath = backupPath
	}

	doc, corrupt := storage.Load(path)
	if corrupt {
		log.Warnf("storage file %v is unreadable or contains invalid JSON, starting from an empty document", path)
	}
	result.CorruptConfig = corrupt
	result.Previous = storage.Previous(doc, r.opts.Schema)

	ids, err := idgen.New(r.opts.Random).NewIdentifierSet(r.opts.HexLength)
	if err != nil {
		return nil, fmt.Errorf("could not generate identifiers: %w", err)
	}
	result.New = ids

	updated := storage.Apply(doc, ids, r.opts.Schema)
	if r.opts.DryRun {
		log.Infof("dry run, not writing %v", path)
		return result, nil
	}

	if err := r.persist(path, updated); err != nil {
		if result.BackupPath != "" {
			if restoreErr := storage.Restore(result.BackupPath, path); restoreErr != nil {
				log.Errorf("could not restore backup: %v", restoreErr)
			} else {
				log.Infof("restored %v from backup after write failure", path)
			}
		}
		return nil, cursor.Wrap(cursor.KindWrite, err, "could not write storage file")
	}
	log.Infof("updated %v", path)
	return result, nil
}

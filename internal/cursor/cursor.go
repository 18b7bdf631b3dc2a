package cursor

import (
	"errors"
	"fmt"
)

// Storage file keys, dotted-key convention. Cursor stores the telemetry
// identifiers as flat top-level keys in storage.json.
const (
	KeyMachineID    = "telemetry.machineId"
	KeyMacMachineID = "telemetry.macMachineId"
	KeyDevDeviceID  = "telemetry.devDeviceId"
)

// Sub-keys used when the identifiers live under a nested "telemetry" object.
const (
	KeyTelemetry       = "telemetry"
	SubKeyMachineID    = "machineId"
	SubKeyMacMachineID = "macMachineId"
	SubKeyDevDeviceID  = "devDeviceId"
)

// IdentifierSet holds the three identifier values targeted by a reset.
// A fresh set is generated on every run.
type IdentifierSet struct {
	MachineID    string `json:"machineId"`
	MacMachineID string `json:"macMachineId"`
	DevDeviceID  string `json:"devDeviceId"`
}

// KeySchema selects how the identifier fields are addressed in the
// storage document.
type KeySchema int

const (
	// SchemaDotted stores the identifiers as flat top-level keys
	// ("telemetry.machineId"). This matches Cursor's storage.json.
	SchemaDotted KeySchema = iota
	// SchemaNested stores the identifiers under a "telemetry" object.
	SchemaNested
)

// ParseKeySchema parses a configuration value into a KeySchema.
func ParseKeySchema(value string) (KeySchema, error) {
	switch value {
	case "dotted":
		return SchemaDotted, nil
	case "nested":
		return SchemaNested, nil
	}
	return SchemaDotted, fmt.Errorf("unknown key schema: %q", value)
}

func (s KeySchema) String() string {
	switch s {
	case SchemaDotted:
		return "dotted"
	case SchemaNested:
		return "nested"
	}
	return fmt.Sprintf("KeySchema(%d)", int(s))
}

// Kind classifies the fatal failure modes of a reset run.
type Kind int

const (
	// KindUnsupportedPlatform means the host platform has no storage
	// path mapping.
	KindUnsupportedPlatform Kind = iota
	// KindConfigLocation means a required environment variable was unset.
	KindConfigLocation
	// KindBackup means the pre-mutation backup could not be created.
	KindBackup
	// KindWrite means the updated storage file could not be persisted.
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindConfigLocation:
		return "config location"
	case KindBackup:
		return "backup"
	case KindWrite:
		return "write"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type surfaced by a reset run. The Kind tag
// replaces a hierarchy of error classes; callers branch on it with KindOf.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf constructs an Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// Wrap tags an underlying error with a kind and a message.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, if err is (or wraps) an Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

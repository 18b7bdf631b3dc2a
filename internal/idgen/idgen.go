// Package idgen generates the random identifier values written into the
// storage file.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/ultrasev/cursor-reset/internal/cursor"
)

// DefaultHexLength is the length of the generated machine identifiers.
// Cursor has shipped both 32- and 64-character variants; the length is a
// configuration choice (`id-length`), defaulting to 32.
const DefaultHexLength = 32

// Generator produces random identifiers from an explicitly supplied
// source. There is no package-global state; tests pass a seeded source
// for deterministic output.
type Generator struct {
	src io.Reader
}

// New returns a Generator reading randomness from src. A nil src selects
// crypto/rand.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// Hex returns a lowercase hex string of exactly length characters, each
// digit uniform over 0-9a-f.
func (g *Generator) Hex(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("negative hex length %d", length)
	}
	buf := make([]byte, (length+1)/2)
	if _, err := io.ReadFull(g.src, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}

// UUID4 returns a canonical 8-4-4-4-12 lowercase UUID with version 4 and
// an RFC 4122 variant nibble.
func (g *Generator) UUID4() (string, error) {
	u, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return u.String(), nil
}

// NewIdentifierSet generates a fresh set of identifier values: two hex
// machine identifiers of hexLength characters and a UUID v4 device
// identifier.
func (g *Generator) NewIdentifierSet(hexLength int) (cursor.IdentifierSet, error) {
	var ids cursor.IdentifierSet
	var err error
	if ids.MachineID, err = g.Hex(hexLength); err != nil {
		return ids, err
	}
	if ids.MacMachineID, err = g.Hex(hexLength); err != nil {
		return ids, err
	}
	if ids.DevDeviceID, err = g.UUID4(); err != nil {
		return ids, err
	}
	return ids, nil
}

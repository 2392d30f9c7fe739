package message

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/reoring/pulsarschema/avro"
)

// ErrUnknownVersion is returned when no writer schema is registered for a
// version.
var ErrUnknownVersion = errors.New("message: unknown schema version")

// WriterSchemas looks up the schema a payload was written with.
type WriterSchemas interface {
	WriterSchema(ctx context.Context, version []byte) (*avro.Schema, error)
}

// Versions is an in-memory version table. Versions are assigned in order,
// starting at 0; adding a document with the same layout as a registered one
// returns the existing version. Safe for concurrent use.
type Versions struct {
	mu      sync.RWMutex
	docs    map[string]*avro.Schema
	byPrint map[uint64][]byte
	next    int64
}

func NewVersions() *Versions {
	return &Versions{docs: map[string]*avro.Schema{}, byPrint: map[uint64][]byte{}}
}

// Add registers s and returns its version.
func (v *Versions) Add(s *avro.Schema) []byte {
	fp := avro.Fingerprint64(s)
	v.mu.Lock()
	defer v.mu.Unlock()
	if ver, ok := v.byPrint[fp]; ok {
		return ver
	}
	ver := Version(v.next)
	v.next++
	v.docs[string(ver)] = s
	v.byPrint[fp] = ver
	return ver
}

func (v *Versions) WriterSchema(ctx context.Context, version []byte) (*avro.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	s, ok := v.docs[string(version)]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, hex.EncodeToString(version))
	}
	return s, nil
}

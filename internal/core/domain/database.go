package domain

import (
	"bytes"
	"encoding/hex"
	"math"
	"strings"

	"github.com/google/uuid"
)

// DatabaseIDSize is the width of a DatabaseID in bytes.
const DatabaseIDSize = 16

// FrameNo identifies a single frame in a database's write-ahead log.
type FrameNo = uint64

// MaxFrameNo is the largest representable frame number.
const MaxFrameNo FrameNo = math.MaxUint64

// DatabaseID is the fixed-size identifier of a logical database.
//
// Ordering is plain byte-wise comparison of the 16 bytes.
type DatabaseID [DatabaseIDSize]byte

// DatabaseIDFromName derives the stable id of a database from its name.
func DatabaseIDFromName(name string) DatabaseID {
	return DatabaseID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)))
}

// ParseDatabaseID parses the canonical UUID form or 32 hex characters.
func ParseDatabaseID(s string) (DatabaseID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DatabaseID{}, ErrMissingArgument.WithDetails("database id is empty")
	}

	if len(s) == 2*DatabaseIDSize {
		var id DatabaseID
		if _, err := hex.Decode(id[:], []byte(s)); err != nil {
			return DatabaseID{}, ErrInvalidArgument.WithDetails("database id: " + err.Error())
		}
		return id, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return DatabaseID{}, ErrInvalidArgument.WithDetails("database id: " + err.Error())
	}
	return DatabaseID(u), nil
}

// NamePrefix marks a database reference given by name rather than id.
const NamePrefix = "name:"

// ResolveDatabaseID accepts either an id (see ParseDatabaseID) or
// "name:<database name>".
func ResolveDatabaseID(ref string) (DatabaseID, error) {
	ref = strings.TrimSpace(ref)
	if name, ok := strings.CutPrefix(ref, NamePrefix); ok {
		if name == "" {
			return DatabaseID{}, ErrMissingArgument.WithDetails("database name is empty")
		}
		return DatabaseIDFromName(name), nil
	}
	return ParseDatabaseID(ref)
}

// String returns the canonical UUID form.
func (id DatabaseID) String() string {
	return uuid.UUID(id).String()
}

// Compare returns -1, 0 or +1 comparing ids byte-wise.
func (id DatabaseID) Compare(other DatabaseID) int {
	return bytes.Compare(id[:], other[:])
}

// IsZero reports whether the id is all zero bytes.
func (id DatabaseID) IsZero() bool {
	return id == DatabaseID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id DatabaseID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *DatabaseID) UnmarshalText(text []byte) error {
	parsed, err := ParseDatabaseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

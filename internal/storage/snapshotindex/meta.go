package snapshotindex

import (
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/gamebox/sqld/internal/core/domain"
)

// Field numbers of the stored Meta record. Never reuse a number.
const (
	fieldSnapshotID protowire.Number = 1
)

// Meta is the record stored for each registered range.
type Meta struct {
	// SnapshotID names the artifact holding the snapshot payload.
	SnapshotID uuid.UUID
}

// EncodeMeta serializes m in protobuf wire format.
func EncodeMeta(m Meta) []byte {
	b := make([]byte, 0, 2+len(m.SnapshotID))
	b = protowire.AppendTag(b, fieldSnapshotID, protowire.BytesType)
	b = protowire.AppendBytes(b, m.SnapshotID[:])
	return b
}

// DecodeMeta parses a record written by EncodeMeta or any later version of
// it. Unknown fields are skipped; a missing or malformed snapshot id is
// corruption.
func DecodeMeta(b []byte) (Meta, error) {
	var (
		m    Meta
		seen bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Meta{}, corruptMeta(protowire.ParseError(n))
		}
		b = b[n:]

		if num == fieldSnapshotID && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Meta{}, corruptMeta(protowire.ParseError(n))
			}
			if len(v) != len(m.SnapshotID) {
				return Meta{}, corruptMeta(fmt.Errorf("snapshot_id length %d", len(v)))
			}
			copy(m.SnapshotID[:], v)
			seen = true
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return Meta{}, corruptMeta(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if !seen {
		return Meta{}, corruptMeta(fmt.Errorf("snapshot_id missing"))
	}
	return m, nil
}

func corruptMeta(cause error) error {
	return domain.ErrIndexCorrupt.WithDetails("decode meta").Wrap(cause)
}

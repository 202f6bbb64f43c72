package snapshotindex

import (
	"encoding/binary"
	"fmt"

	"github.com/gamebox/sqld/internal/core/domain"
)

// Key layout offsets.
const (
	startOffset = domain.DatabaseIDSize
	endOffset   = startOffset + 8

	// KeySize is the fixed width of an encoded Key.
	KeySize = endOffset + 8
)

// Key identifies the inclusive frame range [StartFrameNo, EndFrameNo] of
// one database.
//
// Encoded keys sort by DatabaseID, then StartFrameNo, then EndFrameNo.
type Key struct {
	DatabaseID   domain.DatabaseID
	StartFrameNo domain.FrameNo
	EndFrameNo   domain.FrameNo
}

// ProbeKey returns the lookup key for frameNo: it sorts after every key of
// databaseID starting at or before frameNo and before every key starting
// after it. Probe keys are never stored.
func ProbeKey(databaseID domain.DatabaseID, frameNo domain.FrameNo) Key {
	return Key{
		DatabaseID:   databaseID,
		StartFrameNo: frameNo,
		EndFrameNo:   domain.MaxFrameNo,
	}
}

// Contains reports whether frameNo lies within the key's range.
func (k Key) Contains(frameNo domain.FrameNo) bool {
	return k.StartFrameNo <= frameNo && frameNo <= k.EndFrameNo
}

// Overlaps reports whether the two ranges share at least one frame.
// Keys of different databases never overlap.
func (k Key) Overlaps(other Key) bool {
	return k.DatabaseID == other.DatabaseID &&
		k.StartFrameNo <= other.EndFrameNo &&
		other.StartFrameNo <= k.EndFrameNo
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return fmt.Sprintf("%s[%d..%d]", k.DatabaseID, k.StartFrameNo, k.EndFrameNo)
}

// EncodeKey packs k as [database_id][start BE][end BE].
func EncodeKey(k Key) []byte {
	buf := make([]byte, KeySize)
	copy(buf[:startOffset], k.DatabaseID[:])
	binary.BigEndian.PutUint64(buf[startOffset:endOffset], k.StartFrameNo)
	binary.BigEndian.PutUint64(buf[endOffset:], k.EndFrameNo)
	return buf
}

// DecodeKey is the inverse of EncodeKey. Input of any other width is
// reported as corruption.
func DecodeKey(b []byte) (Key, error) {
	if len(b) != KeySize {
		return Key{}, domain.ErrIndexCorrupt.WithDetails(
			fmt.Sprintf("key length %d, want %d", len(b), KeySize))
	}

	var k Key
	copy(k.DatabaseID[:], b[:startOffset])
	k.StartFrameNo = binary.BigEndian.Uint64(b[startOffset:endOffset])
	k.EndFrameNo = binary.BigEndian.Uint64(b[endOffset:])
	return k, nil
}

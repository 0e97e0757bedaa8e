package persistence

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

var snapshotMagic = [4]byte{'V', 'I', 'C', 'B'}

// SnapshotVersion is the current snapshot envelope version.
const SnapshotVersion = uint16(1)

var (
	ErrBadMagic           = fmt.Errorf("%w: invalid snapshot magic", ErrFormat)
	ErrBadSnapshotVersion = fmt.Errorf("%w: unsupported snapshot version", ErrFormat)
	ErrBadFamilyName      = fmt.Errorf("%w: invalid hash family name", ErrFormat)
)

// ChecksumMismatchError is returned when the snapshot payload fails CRC32
// verification. CRC32 detects accidental corruption only; it is not a
// tamper-evidence mechanism.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Unwrap classifies the mismatch as a format error.
func (e *ChecksumMismatchError) Unwrap() error { return ErrFormat }

// Snapshot is a decoded filter snapshot: the canonical parameters and body
// plus the configuration needed to reconstruct an identically-behaving
// filter. Scheme and VIBase are opaque to this package; the filter layer
// assigns their meaning.
//
// Only the canonical encoding is an interop contract. The envelope fields
// make a snapshot self-describing for this implementation; other
// implementations exchange the canonical bytes and agree on hash family
// and seed out of band.
type Snapshot struct {
	Params Params
	Body   []byte
	Family string
	Seed   uint64
	Scheme uint8
	VIBase uint8
	Count  uint64
}

// snapshotFixedLen covers magic through familyLen.
const snapshotFixedLen = 4 + 2 + 1 + 1 + 1 + 1 + 8 + 8 + 1

// WriteSnapshot encodes snap into w.
//
// Envelope layout, multi-byte fields big-endian:
//
//	magic       "VICB"
//	version     uint16
//	compression uint8
//	scheme      uint8
//	vibase      uint8
//	reserved    uint8
//	seed        uint64
//	count       uint64
//	familyLen   uint8, then family name bytes
//	rawLen      uint32   canonical payload length before compression
//	encLen      uint32   stored payload length
//	payload     encLen bytes
//	crc32       uint32   IEEE CRC of the uncompressed canonical payload
func WriteSnapshot(w io.Writer, snap *Snapshot, comp Compression) error {
	if len(snap.Family) == 0 || len(snap.Family) > 255 {
		return fmt.Errorf("%w: %q", ErrBadFamilyName, snap.Family)
	}

	raw, err := EncodeCanonical(snap.Params, snap.Body)
	if err != nil {
		return err
	}
	sum := crc32.ChecksumIEEE(raw)

	enc, comp, err := compress(raw, comp)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, snapshotFixedLen+len(snap.Family)+8+len(enc)+4)
	buf = append(buf, snapshotMagic[:]...)
	buf = binary.BigEndian.AppendUint16(buf, SnapshotVersion)
	buf = append(buf, byte(comp), snap.Scheme, snap.VIBase, 0)
	buf = binary.BigEndian.AppendUint64(buf, snap.Seed)
	buf = binary.BigEndian.AppendUint64(buf, snap.Count)
	buf = append(buf, byte(len(snap.Family)))
	buf = append(buf, snap.Family...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(raw)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(enc)))
	buf = append(buf, enc...)
	buf = binary.BigEndian.AppendUint32(buf, sum)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("persistence: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot envelope from r, verifying the checksum
// and the canonical header before returning. A malformed envelope is
// rejected without partial results.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	fixed := make([]byte, snapshotFixedLen)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
	if [4]byte(fixed[0:4]) != snapshotMagic {
		return nil, ErrBadMagic
	}
	if v := binary.BigEndian.Uint16(fixed[4:6]); v != SnapshotVersion {
		return nil, fmt.Errorf("%w: got %d", ErrBadSnapshotVersion, v)
	}
	comp := Compression(fixed[6])
	scheme := fixed[7]
	vibase := fixed[8]
	seed := binary.BigEndian.Uint64(fixed[10:18])
	count := binary.BigEndian.Uint64(fixed[18:26])
	famLen := int(fixed[26])

	rest := make([]byte, famLen+8)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
	family := string(rest[:famLen])
	rawLen := binary.BigEndian.Uint32(rest[famLen : famLen+4])
	encLen := binary.BigEndian.Uint32(rest[famLen+4 : famLen+8])

	payload := make([]byte, encLen+4)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
	enc := payload[:encLen]
	sum := binary.BigEndian.Uint32(payload[encLen:])

	raw, err := decompress(enc, comp, rawLen)
	if err != nil {
		return nil, err
	}
	if actual := crc32.ChecksumIEEE(raw); actual != sum {
		return nil, &ChecksumMismatchError{Expected: sum, Actual: actual}
	}

	params, body, err := DecodeCanonical(raw)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Params: params,
		Body:   body,
		Family: family,
		Seed:   seed,
		Scheme: scheme,
		VIBase: vibase,
		Count:  count,
	}, nil
}

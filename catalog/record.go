package catalog

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Status is the encode/analyze lifecycle of one (asset, date) pair,
// generalized from AssetInfo::DateInfo's encoded/analyzed bit pair into an
// explicit state so a failed attempt is distinguishable from "not tried yet".
type Status uint8

const (
	StatusPending Status = iota
	StatusEncoded
	StatusAnalyzed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusEncoded:
		return "ENCODED"
	case StatusAnalyzed:
		return "ANALYZED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is the durable per-(asset,date) record, generalized from
// AssetInfo::DateInfo.
type Record struct {
	Status        Status
	OrderCount    uint64
	SnapshotsFile string
	OrdersFile    string
	LastAttempt   int64 // unix nanos
	FailureReason string
}

// HasBinaries mirrors AssetInfo::DateInfo::has_binaries.
func (r Record) HasBinaries() bool {
	return r.SnapshotsFile != "" || r.OrdersFile != ""
}

// encodeRecord packs a Record as [status:1][orderCount:8][lastAttempt:8]
// followed by three length-prefixed strings (snapshots file, orders file,
// failure reason), in that order.
func encodeRecord(r Record) []byte {
	buf := make([]byte, 0, 1+8+8+3*2+len(r.SnapshotsFile)+len(r.OrdersFile)+len(r.FailureReason))
	buf = append(buf, byte(r.Status))
	buf = binary.BigEndian.AppendUint64(buf, r.OrderCount)
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.LastAttempt))
	buf = appendString(buf, r.SnapshotsFile)
	buf = appendString(buf, r.OrdersFile)
	buf = appendString(buf, r.FailureReason)
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

var errRecordTooShort = errors.New("catalog: record buffer too short")

func decodeRecord(b []byte) (Record, error) {
	if len(b) < 1+8+8+2 {
		return Record{}, errRecordTooShort
	}
	r := Record{Status: Status(b[0])}
	r.OrderCount = binary.BigEndian.Uint64(b[1:9])
	r.LastAttempt = int64(binary.BigEndian.Uint64(b[9:17]))
	rest := b[17:]

	var err error
	r.SnapshotsFile, rest, err = readString(rest)
	if err != nil {
		return Record{}, err
	}
	r.OrdersFile, rest, err = readString(rest)
	if err != nil {
		return Record{}, err
	}
	r.FailureReason, _, err = readString(rest)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errRecordTooShort
	}
	n := int(binary.BigEndian.Uint16(b))
	b = b[2:]
	if len(b) < n {
		return "", nil, errRecordTooShort
	}
	return string(b[:n]), b[n:], nil
}

package codec

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/mmap"
)

// eventLogMagic identifies a compressed event log file. Files are one of
// <asset>_snapshots_<N>.bin or <asset>_orders_<N>.bin; the kind byte right
// after the magic records which Schema the columns were written with.
var eventLogMagic = [4]byte{'E', 'V', 'L', 'G'}

const eventLogVersion = 1

type eventLogKind uint8

const (
	KindSnapshot eventLogKind = 0
	KindOrder    eventLogKind = 1
)

// Writer appends rows of one Schema to a compressed event log file. Rows
// are buffered in memory and flushed column-major on Close, since every
// codec in this package needs the whole column at once to pick a good
// encoding.
type Writer struct {
	f      *os.File
	schema Schema
	kind   eventLogKind
	rows   [][]int64
}

func CreateWriter(path string, kind eventLogKind, schema Schema) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create event log %s", path)
	}
	return &Writer{f: f, schema: schema, kind: kind}, nil
}

// WriteRow appends one row. len(row) must equal len(schema); callers
// building rows from domain/lob events are responsible for that ordering.
func (w *Writer) WriteRow(row []int64) {
	cp := make([]int64, len(row))
	copy(cp, row)
	w.rows = append(w.rows, cp)
}

// Close encodes every column with the auto-select codec and writes the
// file, then closes the underlying handle.
func (w *Writer) Close() error {
	defer w.f.Close()

	var header [4 + 1 + 1 + 8]byte
	copy(header[0:4], eventLogMagic[:])
	header[4] = eventLogVersion
	header[5] = byte(w.kind)
	binary.LittleEndian.PutUint64(header[6:14], uint64(len(w.rows)))
	if _, err := w.f.Write(header[:]); err != nil {
		return errors.Wrap(err, "write event log header")
	}

	numValues := len(w.rows)
	for colIdx, col := range w.schema {
		column := make([]int64, numValues)
		for r := 0; r < numValues; r++ {
			column[r] = w.rows[r][colIdx]
		}
		algo, body := EncodeColumn(col, column, ChoiceAuto)

		var colHeader [5]byte
		colHeader[0] = byte(algo)
		binary.LittleEndian.PutUint32(colHeader[1:5], uint32(len(body)))
		if _, err := w.f.Write(colHeader[:]); err != nil {
			return errors.Wrapf(err, "write column header %s", col.Name)
		}
		if _, err := w.f.Write(body); err != nil {
			return errors.Wrapf(err, "write column body %s", col.Name)
		}
	}
	return nil
}

// Reader memory-maps a closed event log file for random access during the
// sequential replay phase: the whole file lives in the page cache and
// individual columns decode on demand without a read syscall per access.
type Reader struct {
	ra       *mmap.ReaderAt
	schema   Schema
	kind     eventLogKind
	rowCount int
}

func OpenReader(path string, schema Schema) (*Reader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap open %s", path)
	}

	var header [4 + 1 + 1 + 8]byte
	if _, err := ra.ReadAt(header[:], 0); err != nil {
		ra.Close()
		return nil, errors.Wrapf(err, "read event log header %s", path)
	}
	if header[0] != eventLogMagic[0] || header[1] != eventLogMagic[1] ||
		header[2] != eventLogMagic[2] || header[3] != eventLogMagic[3] {
		ra.Close()
		return nil, errors.Mark(errors.Newf("bad magic in %s", path), ErrCorruptData)
	}
	if header[4] != eventLogVersion {
		ra.Close()
		return nil, errors.Mark(errors.Newf("unsupported event log version %d", header[4]), ErrCorruptData)
	}

	return &Reader{
		ra:       ra,
		schema:   schema,
		kind:     eventLogKind(header[5]),
		rowCount: int(binary.LittleEndian.Uint64(header[6:14])),
	}, nil
}

func (r *Reader) Kind() eventLogKind { return r.kind }
func (r *Reader) RowCount() int      { return r.rowCount }
func (r *Reader) Close() error       { return r.ra.Close() }

// Rows decodes every column and transposes back into row-major form. This
// reads the whole file; callers on a tight memory budget should decode
// column-by-column instead via a future streaming API.
func (r *Reader) Rows() ([][]int64, error) {
	columns := make([][]int64, len(r.schema))
	pos := int64(4 + 1 + 1 + 8)

	for i, col := range r.schema {
		var colHeader [5]byte
		if _, err := r.ra.ReadAt(colHeader[:], pos); err != nil {
			return nil, errors.Wrapf(err, "read column header %s", col.Name)
		}
		algo := Algorithm(colHeader[0])
		bodyLen := int(binary.LittleEndian.Uint32(colHeader[1:5]))
		pos += 5

		body := make([]byte, bodyLen)
		if bodyLen > 0 {
			if _, err := r.ra.ReadAt(body, pos); err != nil && err != io.EOF {
				return nil, errors.Wrapf(err, "read column body %s", col.Name)
			}
		}
		pos += int64(bodyLen)

		values, err := DecodeColumn(col, algo, body, r.rowCount)
		if err != nil {
			return nil, errors.Wrapf(err, "decode column %s", col.Name)
		}
		columns[i] = values
	}

	rows := make([][]int64, r.rowCount)
	for rIdx := range rows {
		row := make([]int64, len(r.schema))
		for cIdx := range r.schema {
			row[cIdx] = columns[cIdx][rIdx]
		}
		rows[rIdx] = row
	}
	return rows, nil
}

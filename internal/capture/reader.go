package capture

import (
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Reader reads records written by a Recorder.
type Reader struct {
	dec *cbor.Decoder
	zr  *zstd.Decoder
}

func NewReader(r io.Reader, compressed bool) (*Reader, error) {
	rd := &Reader{}
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "zstd reader")
		}
		rd.zr = zr
		r = zr
	}
	rd.dec = decMode.NewDecoder(r)
	return rd, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, errors.Wrap(err, "read record")
	}
	return rec, nil
}

// Close releases the decompressor, if any.
func (r *Reader) Close() {
	if r.zr != nil {
		r.zr.Close()
	}
}

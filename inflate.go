package pngdec

import (
	"compress/zlib"
	"io"
)

// inflateFeeder streams a zlib-wrapped DEFLATE body (the concatenation
// of every IDAT chunk) and hands back exactly the filtered-pixel bytes
// the image's geometry calls for, no more and no less. The DEFLATE
// engine itself is the standard library's compress/zlib; this type
// only owns the feed/drain contract around it (the window and Huffman
// state live inside the zlib.Reader, not here).
type inflateFeeder struct {
	zr       io.ReadCloser
	expected int64
	consumed int64
}

// newInflateFeeder wraps r (a stream that already concatenates IDAT
// chunks, i.e. an *idatReader) and validates its 2-byte zlib header.
// expected is the exact decompressed byte count the caller will pull
// via readRow before calling finish.
func newInflateFeeder(r io.Reader, expected int64) (*inflateFeeder, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, newErr(StatusDecodeError, "bad zlib header")
	}
	return &inflateFeeder{zr: zr, expected: expected}, nil
}

// readRow fills buf completely from the inflate stream. It fails with
// StatusDecodeError if doing so would exceed the expected total, or
// if the compressed stream ends before buf is full.
func (f *inflateFeeder) readRow(buf []byte) error {
	if f.consumed+int64(len(buf)) > f.expected {
		return newErr(StatusDecodeError, "inflate produced more data than the image geometry expects")
	}
	n, err := io.ReadFull(f.zr, buf)
	f.consumed += int64(n)
	if err != nil {
		return newErr(StatusDecodeError, "compressed stream ended before the expected scanline data")
	}
	return nil
}

// finish asserts that exactly the expected number of bytes were
// produced and that the stream's Adler-32 trailer is valid. Reading
// compress/zlib to EOF is what triggers its own Adler-32 check, so
// finish performs one more Read beyond the last row to force that
// check and reports a mismatch if it surfaces extra data instead of
// a clean end of stream.
func (f *inflateFeeder) finish() error {
	if f.consumed != f.expected {
		return newErr(StatusDecodeError, "decompressed size does not match image geometry")
	}
	var probe [1]byte
	n, err := f.zr.Read(probe[:])
	if n > 0 {
		return newErr(StatusDecodeError, "trailing data after the expected decompressed size")
	}
	if err != io.EOF {
		return newErr(StatusDecodeError, "zlib Adler-32 checksum mismatch")
	}
	if err := f.zr.Close(); err != nil {
		return newErr(StatusDecodeError, "zlib stream close failed")
	}
	return nil
}

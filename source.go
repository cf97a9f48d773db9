package pngdec

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// OpenFunc, ReadFunc, SeekFunc and CloseFunc are the host-supplied
// callback set for file-backed decoding. They let an embedding
// environment present its own file handle (an SD card driver, a host
// OS file, anything) without this package knowing its concrete type.
type (
	OpenFunc  func(name string) (handle any, size int64, err error)
	ReadFunc  func(handle any, buf []byte) (n int, err error)
	SeekFunc  func(handle any, pos int64) (newPos int64, err error)
	CloseFunc func(handle any) error
)

// FileCallbacks bundles a host's data-source implementation. Read may
// perform short reads (anything less than len(buf) with a nil error
// means "try again"); a read of zero bytes with a nil error means EOF.
type FileCallbacks struct {
	Open  OpenFunc
	Read  ReadFunc
	Seek  SeekFunc
	Close CloseFunc
}

// source is the uniform read/seek/close surface presented to the
// chunk reader, regardless of whether the backing store is a RAM
// buffer, read-only flash, or a host file handle.
type source interface {
	io.Reader
	io.Seeker
	io.Closer
}

// ramSource serves PNG bytes already resident in memory. It is also
// used for the FLASH variant: on a real embedded target FLASH reads
// go through a memcpy-equivalent that respects read-only program
// memory, but in Go both RAM and FLASH are ordinary addressable
// memory, so the two share this adapter.
type ramSource struct {
	r *bytes.Reader
}

func newRAMSource(data []byte) *ramSource {
	return &ramSource{r: bytes.NewReader(data)}
}

func (s *ramSource) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *ramSource) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}

func (s *ramSource) Close() error { return nil }

// fileSource adapts a host's FileCallbacks to the source interface.
type fileSource struct {
	cb     FileCallbacks
	handle any
	size   int64
	pos    int64
}

func openFileSource(name string, cb FileCallbacks) (*fileSource, error) {
	if cb.Open == nil || cb.Read == nil || cb.Seek == nil || cb.Close == nil {
		return nil, newErr(StatusInvalidParameter, "incomplete file callback set")
	}
	handle, size, err := cb.Open(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &fileSource{cb: cb, handle: handle, size: size}, nil
}

func (s *fileSource) Read(p []byte) (int, error) {
	n, err := s.cb.Read(s.handle, p)
	s.pos += int64(n)
	if err != nil {
		return n, errors.WithStack(err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = s.size + offset
	default:
		return 0, newErr(StatusInvalidParameter, "invalid seek whence")
	}
	newPos, err := s.cb.Seek(s.handle, abs)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	s.pos = newPos
	return newPos, nil
}

func (s *fileSource) Close() error {
	return errors.WithStack(s.cb.Close(s.handle))
}

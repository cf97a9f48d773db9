package pngdec

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
)

// png format chunk framing: https://www.w3.org/TR/PNG-Chunks.html
var byteOrder = binary.BigEndian

var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ChunkName is a 4-byte PNG chunk type code, e.g. "IHDR".
type ChunkName string

const (
	ihdrChunk ChunkName = "IHDR"
	plteChunk ChunkName = "PLTE"
	idatChunk ChunkName = "IDAT"
	iendChunk ChunkName = "IEND"
	trnsChunk ChunkName = "tRNS"
	textChunk ChunkName = "tEXt"
	ztxtChunk ChunkName = "zTXt"
	timeChunk ChunkName = "tIME"
)

// maxChunkLength is the spec cap on a chunk's declared length (2^31-1).
const maxChunkLength = 1<<31 - 1

// isAncillary reports whether a chunk type's first byte is lowercase,
// meaning a decoder may skip it without understanding it.
func isAncillary(name ChunkName) bool {
	if len(name) == 0 {
		return false
	}
	c := name[0]
	return c >= 'a' && c <= 'z'
}

// chunkHeader is a chunk's length and type, read before its payload.
type chunkHeader struct {
	name   ChunkName
	length uint32
}

// chunkReader walks the `length|type|data|crc` records of a PNG
// stream. It never buffers more than one chunk's worth of metadata
// (payload bytes are drained by the caller into its own scratch, or,
// for IDAT, streamed straight into the inflate feeder) so the whole
// file is never resident in memory.
type chunkReader struct {
	r        source
	crc      hash.Hash32
	checkCRC bool

	tmp [8]byte

	// remaining is the number of undrained payload bytes left in the
	// chunk currently being read.
	remaining uint32

	// pending holds a chunk header already read off the wire (by the
	// IDAT cross-boundary reader peeking ahead) but not yet consumed
	// by nextHeader.
	pending    chunkHeader
	hasPending bool
}

func newChunkReader(r source, checkCRC bool) *chunkReader {
	return &chunkReader{r: r, crc: crc32.NewIEEE(), checkCRC: checkCRC}
}

// checkSignature consumes and validates the 8-byte PNG signature.
func (c *chunkReader) checkSignature() error {
	var sig [8]byte
	if _, err := io.ReadFull(c.r, sig[:]); err != nil {
		return newErr(StatusInvalidFile, "truncated signature")
	}
	if sig != pngSignature {
		return newErr(StatusInvalidFile, "bad PNG signature")
	}
	return nil
}

// nextHeader reads the next chunk's length and type, rejecting
// out-of-range lengths, and arms the CRC accumulator with the type
// bytes.
func (c *chunkReader) nextHeader() (chunkHeader, error) {
	if c.hasPending {
		c.hasPending = false
		h := c.pending
		c.remaining = h.length
		c.crc.Reset()
		c.crc.Write([]byte(h.name))
		return h, nil
	}
	if _, err := io.ReadFull(c.r, c.tmp[:8]); err != nil {
		return chunkHeader{}, newErr(StatusInvalidFile, "truncated chunk header")
	}
	length := byteOrder.Uint32(c.tmp[:4])
	if length > maxChunkLength {
		return chunkHeader{}, newErr(StatusInvalidFile, "chunk length exceeds spec cap")
	}
	name := ChunkName(c.tmp[4:8])
	c.remaining = length
	c.crc.Reset()
	c.crc.Write(c.tmp[4:8])
	return chunkHeader{name: name, length: length}, nil
}

// peekHeader is like nextHeader but stashes the header for a
// following nextHeader call instead of arming remaining/crc for it.
// Used by the IDAT stream reader to discover, without consuming, the
// chunk that follows a run of IDATs.
func (c *chunkReader) peekHeader() (chunkHeader, error) {
	if _, err := io.ReadFull(c.r, c.tmp[:8]); err != nil {
		return chunkHeader{}, newErr(StatusInvalidFile, "truncated chunk header")
	}
	length := byteOrder.Uint32(c.tmp[:4])
	if length > maxChunkLength {
		return chunkHeader{}, newErr(StatusInvalidFile, "chunk length exceeds spec cap")
	}
	h := chunkHeader{name: ChunkName(c.tmp[4:8]), length: length}
	c.pending = h
	c.hasPending = true
	return h, nil
}

// readFull drains exactly len(buf) payload bytes of the current chunk
// into buf, folding them into the running CRC.
func (c *chunkReader) readFull(buf []byte) error {
	if uint32(len(buf)) > c.remaining {
		return newErr(StatusDecodeError, "chunk payload read past its declared length")
	}
	n, err := io.ReadFull(c.r, buf)
	c.crc.Write(buf[:n])
	c.remaining -= uint32(n)
	if err != nil {
		return newErr(StatusDecodeError, "truncated chunk payload")
	}
	return nil
}

// readPartial reads up to len(buf) bytes, never more than what
// remains of the chunk, and reports how many it got. Used by the
// IDAT stream reader, which does not know the caller's read size in
// advance.
func (c *chunkReader) readPartial(buf []byte) (int, error) {
	if c.remaining == 0 {
		return 0, io.EOF
	}
	n := len(buf)
	if uint32(n) > c.remaining {
		n = int(c.remaining)
	}
	read, err := c.r.Read(buf[:n])
	c.crc.Write(buf[:read])
	c.remaining -= uint32(read)
	if err != nil && err != io.EOF {
		return read, newErr(StatusDecodeError, "truncated chunk payload")
	}
	if read == 0 && err == io.EOF {
		return 0, newErr(StatusDecodeError, "truncated chunk payload")
	}
	return read, nil
}

// skip discards the remainder of the current chunk's payload.
func (c *chunkReader) skip() error {
	var buf [512]byte
	for c.remaining > 0 {
		n := len(buf)
		if uint32(n) > c.remaining {
			n = int(c.remaining)
		}
		if err := c.readFull(buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// verifyCRC reads the trailing 4-byte CRC and, when CheckCRC is
// enabled, compares it against the hash accumulated over type||data.
// The bytes are always consumed so the stream stays aligned even when
// the check is disabled.
func (c *chunkReader) verifyCRC() error {
	if c.remaining != 0 {
		return newErr(StatusDecodeError, "chunk payload not fully consumed before CRC")
	}
	if _, err := io.ReadFull(c.r, c.tmp[:4]); err != nil {
		return newErr(StatusDecodeError, "truncated chunk CRC")
	}
	if !c.checkCRC {
		return nil
	}
	want := byteOrder.Uint32(c.tmp[:4])
	if want != c.crc.Sum32() {
		return newErr(StatusDecodeError, "CRC mismatch")
	}
	return nil
}

// idatReader presents one or more IDAT chunks as a single contiguous
// byte stream, crossing chunk boundaries transparently: the inflate
// feeder must see all of an image's IDAT payloads concatenated, since
// the PNG format allows an encoder to split the compressed stream
// across chunks at arbitrary boundaries.
type idatReader struct {
	c    *chunkReader
	done bool
}

func (c *chunkReader) idatStream() *idatReader {
	return &idatReader{c: c}
}

func (ir *idatReader) Read(p []byte) (int, error) {
	if ir.done {
		return 0, io.EOF
	}
	for ir.c.remaining == 0 {
		if err := ir.c.verifyCRC(); err != nil {
			return 0, err
		}
		h, err := ir.c.peekHeader()
		if err != nil {
			return 0, err
		}
		if h.name != idatChunk {
			// Leave it pending for the main chunk walk to consume.
			ir.done = true
			return 0, io.EOF
		}
		// Consume the peeked IDAT header for real.
		if _, err := ir.c.nextHeader(); err != nil {
			return 0, err
		}
	}
	n, err := ir.c.readPartial(p)
	if err == io.EOF {
		ir.done = true
	}
	return n, err
}

package pngdec

import "github.com/pkg/errors"

// Options is the decode-time bitset passed to Decode.
type Options uint32

const (
	// OptCheckCRC enables CRC-32 verification of every chunk.
	OptCheckCRC Options = 1 << iota
	// OptFastPalette precomputes a 256-entry RGB565 table for indexed
	// images so per-row conversion skips the per-pixel blend.
	OptFastPalette
)

// DefaultMaxBufferedPixels bounds the image width this decoder will
// buffer a scanline for, when NewDecoder is given <= 0. It mirrors
// the embedded target's PNG_MAX_BUFFERED_PIXELS budget: a modest
// fixed-capacity arena rather than an allocation sized to the image.
const DefaultMaxBufferedPixels = 800

// maxBytesPerPixel bounds the scratch arena independently of the
// actual color type: 4 bytes/pixel covers TrueColorAlpha at 8 bits,
// the widest combination this build supports (16-bit channels are
// rejected at IHDR time).
const maxBytesPerPixel = 4

// TextChunk is a decoded tEXt keyword/text pair.
type TextChunk struct {
	Keyword, Text string
}

// maxTextChunks bounds how many tEXt chunks are retained; more than
// that are walked (for ordering) but their text is not kept.
const maxTextChunks = 16

// TransparentColor is the public form of a grayscale/truecolor tRNS
// value.
type TransparentColor struct {
	Set     bool
	Gray    uint16
	R, G, B uint16
}

// Decoder is a single PNG decode session. Its scanline scratch arena
// is allocated once at construction and reused for every Decode call.
// Each Decode call still allocates its chunk reader, the zlib inflate
// state and, with OptFastPalette, the RGB565 palette table.
type Decoder struct {
	state   state
	lastErr error

	maxBufferedPixels int
	scratch           []byte // 2 * (maxBufferedPixels*maxBytesPerPixel + 1)
	smallBuf          [2048]byte

	src  source
	draw DrawFunc

	header ImageHeader
	geom   derivedGeometry

	palette     Palette
	transparent transparentColor
	background  RGB
	fastPalette *[256]uint16

	opts Options

	textChunks []TextChunk
}

// NewDecoder allocates a decoder with a fixed scratch budget of
// maxBufferedPixels pixels per scanline (<=0 selects
// DefaultMaxBufferedPixels). The returned value owns all of its
// working memory for its whole lifetime.
func NewDecoder(maxBufferedPixels int) *Decoder {
	if maxBufferedPixels <= 0 {
		maxBufferedPixels = DefaultMaxBufferedPixels
	}
	rowCap := maxBufferedPixels*maxBytesPerPixel + 1
	return &Decoder{
		maxBufferedPixels: maxBufferedPixels,
		scratch:           make([]byte, 2*rowCap),
		state:             stateUninitialized,
	}
}

func (d *Decoder) rowCapacity() int { return len(d.scratch) / 2 }

// OpenRAM binds the decoder to a PNG image already resident in
// memory.
func (d *Decoder) OpenRAM(data []byte, draw DrawFunc) error {
	return d.open(newRAMSource(data), draw)
}

// OpenFLASH binds the decoder to a PNG image resident in read-only
// program memory. On real embedded targets this path respects
// read-only flash; in this Go build it shares the RAM adapter since
// both are ordinary addressable memory here.
func (d *Decoder) OpenFLASH(data []byte, draw DrawFunc) error {
	return d.open(newRAMSource(data), draw)
}

// OpenFile binds the decoder to a PNG behind a host-supplied file
// callback set.
func (d *Decoder) OpenFile(name string, cb FileCallbacks, draw DrawFunc) error {
	fs, err := openFileSource(name, cb)
	if err != nil {
		return d.fail(err)
	}
	return d.open(fs, draw)
}

func (d *Decoder) open(src source, draw DrawFunc) error {
	if d.state != stateUninitialized && d.state != stateClosed {
		return d.fail(newErr(StatusInvalidParameter, "open called on an already-opened decoder; close it first"))
	}
	if draw == nil {
		return d.fail(newErr(StatusInvalidParameter, "nil draw callback"))
	}
	d.header = ImageHeader{}
	d.geom = derivedGeometry{}
	d.palette = Palette{}
	d.transparent = transparentColor{}
	d.fastPalette = nil
	d.textChunks = nil
	d.src = src
	d.draw = draw
	d.state = stateOpened
	d.lastErr = nil
	return nil
}

// SetBackground sets the color blended beneath transparent pixels by
// ToRGB565 and the fast-palette precompute. It must be called before
// Decode to affect the FastPalette565 table attached to rows.
func (d *Decoder) SetBackground(bg RGB) {
	d.background = bg
}

var errAbort = errors.New("draw callback requested abort")

// Decode drives the chunk walk, inflate feed, filter reversal,
// interlace pass handling and row delivery to completion (or
// failure). It is synchronous: the draw callback is invoked from
// inside this call and must not re-enter the decoder.
func (d *Decoder) Decode(userCtx any, opts Options) error {
	if d.state != stateOpened {
		return d.fail(newErr(StatusInvalidParameter, "decode called outside the Opened state"))
	}
	d.state = stateDecoding
	d.opts = opts

	cr := newChunkReader(d.src, opts&OptCheckCRC != 0)
	if err := cr.checkSignature(); err != nil {
		return d.fail(err)
	}

	var sawIHDR, sawPLTE, sawTRNS, sawIDAT, sawIEND bool
	chunkIndex := 0

	for !sawIEND {
		h, err := cr.nextHeader()
		if err != nil {
			return d.fail(err)
		}
		if chunkIndex == 0 && h.name != ihdrChunk {
			return d.fail(newErr(StatusDecodeError, "IHDR must be the first chunk"))
		}
		chunkIndex++

		switch h.name {
		case ihdrChunk:
			if sawIHDR {
				return d.fail(newErr(StatusDecodeError, "duplicate IHDR"))
			}
			if h.length != 13 {
				return d.fail(newErr(StatusInvalidFile, "bad IHDR length"))
			}
			if err := cr.readFull(d.smallBuf[:13]); err != nil {
				return d.fail(err)
			}
			if err := cr.verifyCRC(); err != nil {
				return d.fail(err)
			}
			hdr, err := parseIHDR(d.smallBuf[:13])
			if err != nil {
				return d.fail(err)
			}
			if int(hdr.Width) > d.maxBufferedPixels {
				return d.fail(newErr(StatusTooBig, "image width exceeds the decoder's scratch budget"))
			}
			d.header = hdr
			d.geom = deriveGeometry(hdr)
			if d.geom.bytesPerRow > d.rowCapacity() {
				return d.fail(newErr(StatusTooBig, "filtered row exceeds the decoder's scratch budget"))
			}
			sawIHDR = true

		case plteChunk:
			if !sawIHDR {
				return d.fail(newErr(StatusDecodeError, "PLTE before IHDR"))
			}
			if sawIDAT {
				return d.fail(newErr(StatusDecodeError, "PLTE after IDAT"))
			}
			if sawPLTE {
				return d.fail(newErr(StatusDecodeError, "duplicate PLTE"))
			}
			if h.length == 0 || h.length%3 != 0 || int(h.length) > len(d.smallBuf) {
				return d.fail(newErr(StatusDecodeError, "invalid PLTE length"))
			}
			if err := cr.readFull(d.smallBuf[:h.length]); err != nil {
				return d.fail(err)
			}
			if err := cr.verifyCRC(); err != nil {
				return d.fail(err)
			}
			if err := parsePLTE(d.smallBuf[:h.length], &d.palette); err != nil {
				return d.fail(err)
			}
			sawPLTE = true

		case trnsChunk:
			if !sawIHDR {
				return d.fail(newErr(StatusDecodeError, "tRNS before IHDR"))
			}
			if sawIDAT {
				return d.fail(newErr(StatusDecodeError, "tRNS after IDAT"))
			}
			if sawTRNS {
				return d.fail(newErr(StatusDecodeError, "duplicate tRNS"))
			}
			if d.header.ColorType == ColorIndexed && !sawPLTE {
				return d.fail(newErr(StatusDecodeError, "tRNS before PLTE for indexed image"))
			}
			if int(h.length) > len(d.smallBuf) {
				return d.fail(newErr(StatusDecodeError, "tRNS chunk too large"))
			}
			if err := cr.readFull(d.smallBuf[:h.length]); err != nil {
				return d.fail(err)
			}
			if err := cr.verifyCRC(); err != nil {
				return d.fail(err)
			}
			if err := parseTRNS(d.smallBuf[:h.length], d.header.ColorType, &d.palette, &d.transparent); err != nil {
				return d.fail(err)
			}
			sawTRNS = true

		case textChunk:
			if int(h.length) <= len(d.smallBuf) {
				if err := cr.readFull(d.smallBuf[:h.length]); err != nil {
					return d.fail(err)
				}
				if err := cr.verifyCRC(); err != nil {
					return d.fail(err)
				}
				if len(d.textChunks) < maxTextChunks {
					if tc, ok := splitTextChunk(d.smallBuf[:h.length]); ok {
						d.textChunks = append(d.textChunks, tc)
					}
				}
			} else {
				if err := cr.skip(); err != nil {
					return d.fail(err)
				}
				if err := cr.verifyCRC(); err != nil {
					return d.fail(err)
				}
			}

		case idatChunk:
			if !sawIHDR {
				return d.fail(newErr(StatusDecodeError, "IDAT before IHDR"))
			}
			if d.header.ColorType == ColorIndexed && !sawPLTE {
				return d.fail(newErr(StatusDecodeError, "IDAT before required PLTE"))
			}
			if sawIDAT {
				return d.fail(newErr(StatusDecodeError, "IDAT chunks are not consecutive"))
			}
			sawIDAT = true
			err := d.decodePixelData(cr, userCtx)
			if err == errAbort {
				d.state = stateDone
				d.lastErr = nil
				return nil
			}
			if err != nil {
				return d.fail(err)
			}
			// The inflate stream can end before the IDAT reader has moved
			// past the last IDAT chunk; consume its remainder and CRC.
			if !cr.hasPending {
				if err := cr.skip(); err != nil {
					return d.fail(err)
				}
				if err := cr.verifyCRC(); err != nil {
					return d.fail(err)
				}
			}

		case iendChunk:
			if !sawIDAT {
				return d.fail(newErr(StatusDecodeError, "IEND before any IDAT"))
			}
			if h.length != 0 {
				return d.fail(newErr(StatusInvalidFile, "bad IEND length"))
			}
			if err := cr.verifyCRC(); err != nil {
				return d.fail(err)
			}
			sawIEND = true

		default:
			if !isAncillary(h.name) {
				return d.fail(newErr(StatusUnsupportedFeature, "unsupported critical chunk "+string(h.name)))
			}
			if err := cr.skip(); err != nil {
				return d.fail(err)
			}
			if err := cr.verifyCRC(); err != nil {
				return d.fail(err)
			}
		}
	}

	d.state = stateDone
	return nil
}

// splitTextChunk parses a tEXt payload into keyword/text, per spec's
// keyword\0text framing.
func splitTextChunk(data []byte) (TextChunk, bool) {
	for i, b := range data {
		if b == 0 {
			return TextChunk{Keyword: string(data[:i]), Text: string(data[i+1:])}, true
		}
	}
	return TextChunk{}, false
}

// decodePixelData runs the inflate feeder, filter reversal and (when
// interlaced) Adam7 pass driver over the IDAT stream starting at cr's
// current position, delivering each reconstructed row to the draw
// callback.
func (d *Decoder) decodePixelData(cr *chunkReader, userCtx any) error {
	bpp := d.geom.bitsPerPixel

	if d.opts&OptFastPalette != 0 && d.header.ColorType == ColorIndexed {
		table := buildFastPalette565(&d.palette, d.background)
		d.fastPalette = table
	}

	stream := cr.idatStream()

	if d.header.Interlace == InterlaceAdam7 {
		expected := expectedInterlacedSize(int(d.header.Width), int(d.header.Height), bpp)
		feeder, err := newInflateFeeder(stream, expected)
		if err != nil {
			return err
		}
		for _, p := range adam7Passes {
			passW, passH := passDims(int(d.header.Width), int(d.header.Height), p)
			if passW == 0 || passH == 0 {
				continue
			}
			bpr := passBytesPerRow(passW, bpp)
			if bpr > d.rowCapacity() {
				return newErr(StatusTooBig, "interlace pass row exceeds scratch budget")
			}
			cur := d.scratch[:d.rowCapacity()][:bpr]
			prev := d.scratch[d.rowCapacity():][:bpr]
			zeroBytes(prev)
			for r := 0; r < passH; r++ {
				if err := feeder.readRow(cur); err != nil {
					return err
				}
				if err := reconstructRow(cur, prev, bpp); err != nil {
					return err
				}
				y := p.yStart + r*p.yStride
				desc := d.buildDescriptor(y, passW, p.xStart, p.xStride, cur[1:], userCtx)
				if d.invokeDraw(&desc) {
					return errAbort
				}
				cur, prev = prev, cur
			}
		}
		return feeder.finish()
	}

	bpr := d.geom.bytesPerRow
	expected := int64(d.header.Height) * int64(bpr)
	feeder, err := newInflateFeeder(stream, expected)
	if err != nil {
		return err
	}
	cur := d.scratch[:d.rowCapacity()][:bpr]
	prev := d.scratch[d.rowCapacity():][:bpr]
	zeroBytes(prev)
	for y := 0; y < int(d.header.Height); y++ {
		if err := feeder.readRow(cur); err != nil {
			return err
		}
		if err := reconstructRow(cur, prev, bpp); err != nil {
			return err
		}
		desc := d.buildDescriptor(y, int(d.header.Width), 0, 1, cur[1:], userCtx)
		if d.invokeDraw(&desc) {
			return errAbort
		}
		cur, prev = prev, cur
	}
	return feeder.finish()
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func (d *Decoder) buildDescriptor(y, width, xStart, xStride int, pixels []byte, userCtx any) RowDescriptor {
	return RowDescriptor{
		Y:              y,
		Width:          width,
		XStart:         xStart,
		XStride:        xStride,
		Pitch:          len(pixels),
		PixelType:      d.header.ColorType,
		BitsPerPixel:   d.geom.bitsPerPixel,
		HasAlpha:       hasAlphaChannel(d.header.ColorType) || d.palette.HasAlpha,
		Palette:        &d.palette,
		FastPalette565: d.fastPalette,
		Pixels:         pixels,
		UserContext:    userCtx,
	}
}

// invokeDraw calls the draw sink and reports whether it asked to
// abort.
func (d *Decoder) invokeDraw(desc *RowDescriptor) (abort bool) {
	return d.draw(desc) != 0
}

// ToRGB565 converts desc's raw pixel bytes into dst (which must be at
// least 2*desc.Width bytes). It uses desc's attached FastPalette565
// table when present.
func (d *Decoder) ToRGB565(desc *RowDescriptor, dst []byte, endian Endianness) error {
	if len(dst) < 2*desc.Width {
		return newErr(StatusMemError, "destination buffer too small for RGB565 row")
	}
	return toRGB565(dst, desc.Pixels, desc.Width, d.header, &d.palette, &d.transparent, d.background, endian, desc.FastPalette565)
}

// MakeAlphaMask packs desc's effective per-pixel alpha into dst at one
// bit per pixel.
func (d *Decoder) MakeAlphaMask(desc *RowDescriptor, dst []byte, threshold uint8) error {
	return makeMask(dst, desc.Pixels, desc.Width, d.header, &d.palette, &d.transparent, threshold)
}

// Close releases the bound source and moves the decoder to Closed. A
// closed decoder may be handed to OpenRAM/OpenFLASH/OpenFile again to
// decode a new image with the same scratch arenas; opening again
// without closing first is a protocol error.
func (d *Decoder) Close() error {
	switch d.state {
	case stateUninitialized, stateClosed:
		return newErr(StatusInvalidParameter, "close called outside an open decoder")
	}
	var err error
	if d.src != nil {
		err = d.src.Close()
	}
	d.state = stateClosed
	d.src = nil
	d.draw = nil
	return err
}

func (d *Decoder) fail(err error) error {
	d.state = stateFailed
	d.lastErr = err
	return err
}

// --- Accessors ---

func (d *Decoder) Width() int              { return int(d.header.Width) }
func (d *Decoder) Height() int             { return int(d.header.Height) }
func (d *Decoder) BitsPerPixel() int       { return d.geom.bitsPerPixel }
func (d *Decoder) PixelType() ColorType    { return d.header.ColorType }
func (d *Decoder) IsInterlaced() bool      { return d.header.Interlace == InterlaceAdam7 }
func (d *Decoder) Palette() *Palette       { return &d.palette }
func (d *Decoder) LastError() error        { return d.lastErr }
func (d *Decoder) BufferSize() int         { return len(d.scratch) }
func (d *Decoder) Buffer() []byte          { return d.scratch }
func (d *Decoder) TextChunks() []TextChunk { return d.textChunks }

func (d *Decoder) HasAlpha() bool {
	return hasAlphaChannel(d.header.ColorType) || d.palette.HasAlpha
}

func (d *Decoder) TransparentColor() TransparentColor {
	return TransparentColor{
		Set:  d.transparent.set,
		Gray: d.transparent.gray,
		R:    d.transparent.r,
		G:    d.transparent.g,
		B:    d.transparent.b,
	}
}

// SetBuffer installs a caller-owned scratch arena in place of the one
// allocated by NewDecoder, letting an embedder pin the decoder's
// entire working set at a specific address. buf must be at least
// 2*(maxBufferedPixels*maxBytesPerPixel+1) bytes; it is rejected
// otherwise so a later Decode can never overrun it. Must be called
// while Opened, before Decode.
func (d *Decoder) SetBuffer(buf []byte) error {
	if d.state != stateOpened {
		return newErr(StatusInvalidParameter, "SetBuffer called outside the Opened state")
	}
	minLen := 2 * (d.maxBufferedPixels*maxBytesPerPixel + 1)
	if len(buf) < minLen {
		return newErr(StatusMemError, "buffer too small for this decoder's pixel budget")
	}
	d.scratch = buf
	return nil
}

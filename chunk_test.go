package pngdec

import "testing"

func TestIsAncillary(t *testing.T) {
	if !isAncillary("tEXt") {
		t.Fatal("tEXt should be ancillary")
	}
	if isAncillary("IHDR") {
		t.Fatal("IHDR should not be ancillary")
	}
	if isAncillary("") {
		t.Fatal("empty name should not be ancillary")
	}
}

func TestParseIHDRValidCombinations(t *testing.T) {
	good := []struct {
		ct    ColorType
		depth uint8
	}{
		{ColorGrayscale, 1}, {ColorGrayscale, 2}, {ColorGrayscale, 4}, {ColorGrayscale, 8},
		{ColorTrueColor, 8},
		{ColorIndexed, 1}, {ColorIndexed, 2}, {ColorIndexed, 4}, {ColorIndexed, 8},
		{ColorGrayscaleAlpha, 8},
		{ColorTrueColorAlpha, 8},
	}
	for _, g := range good {
		data := ihdrBytes(1, 1, g.depth, g.ct, 0)
		if _, err := parseIHDR(data); err != nil {
			t.Errorf("colorType=%d depth=%d: unexpected error %v", g.ct, g.depth, err)
		}
	}
}

func TestParseIHDRRejectsBadCombination(t *testing.T) {
	// Indexed color at bit depth 16 is never valid.
	data := ihdrBytes(1, 1, 16, ColorIndexed, 0)
	_, err := parseIHDR(data)
	if StatusOf(err) != StatusUnsupportedFeature {
		t.Fatalf("expected UnsupportedFeature, got %v", err)
	}
}

func TestParseIHDRRejects16Bit(t *testing.T) {
	data := ihdrBytes(1, 1, 16, ColorTrueColor, 0)
	_, err := parseIHDR(data)
	if StatusOf(err) != StatusUnsupportedFeature {
		t.Fatalf("16-bit truecolor should be unsupported in this build, got %v", err)
	}
}

func TestParseIHDRRejectsZeroDimension(t *testing.T) {
	data := ihdrBytes(0, 1, 8, ColorTrueColor, 0)
	_, err := parseIHDR(data)
	if StatusOf(err) != StatusInvalidFile {
		t.Fatalf("zero width should be InvalidFile, got %v", err)
	}
}

func TestParsePLTE(t *testing.T) {
	var pal Palette
	data := []byte{0, 0, 0, 255, 255, 255, 10, 20, 30}
	if err := parsePLTE(data, &pal); err != nil {
		t.Fatalf("parsePLTE: %v", err)
	}
	if pal.Count != 3 {
		t.Fatalf("Count = %d, want 3", pal.Count)
	}
	if pal.Entries[1] != (RGB{255, 255, 255}) {
		t.Fatalf("Entries[1] = %v", pal.Entries[1])
	}
}

func TestParsePLTEBadLength(t *testing.T) {
	var pal Palette
	data := []byte{0, 0, 0, 1}
	if err := parsePLTE(data, &pal); StatusOf(err) != StatusDecodeError {
		t.Fatalf("expected DecodeError for length not multiple of 3, got %v", err)
	}
}

func TestParseTRNSIndexedDefaultsOpaque(t *testing.T) {
	pal := &Palette{Count: 3}
	var tc transparentColor
	if err := parseTRNS([]byte{0}, ColorIndexed, pal, &tc); err != nil {
		t.Fatalf("parseTRNS: %v", err)
	}
	if pal.Alpha[0] != 0 {
		t.Fatalf("Alpha[0] = %d, want 0", pal.Alpha[0])
	}
	if pal.Alpha[1] != 0xFF || pal.Alpha[2] != 0xFF {
		t.Fatalf("unset entries should default to opaque, got %v", pal.Alpha[:3])
	}
}

func TestParseTRNSRejectsAlphaColorTypes(t *testing.T) {
	var pal Palette
	var tc transparentColor
	for _, ct := range []ColorType{ColorGrayscaleAlpha, ColorTrueColorAlpha} {
		if err := parseTRNS([]byte{0, 0}, ct, &pal, &tc); StatusOf(err) != StatusDecodeError {
			t.Fatalf("colorType %d: expected DecodeError, got %v", ct, err)
		}
	}
}

func TestParseTRNSGrayscale(t *testing.T) {
	var pal Palette
	var tc transparentColor
	if err := parseTRNS([]byte{0x01, 0x02}, ColorGrayscale, &pal, &tc); err != nil {
		t.Fatalf("parseTRNS: %v", err)
	}
	if !tc.set || tc.gray != 0x0102 {
		t.Fatalf("tc = %+v", tc)
	}
}

func ihdrBytes(w, h uint32, depth uint8, ct ColorType, interlace uint8) []byte {
	b := make([]byte, 13)
	byteOrder.PutUint32(b[0:4], w)
	byteOrder.PutUint32(b[4:8], h)
	b[8] = depth
	b[9] = uint8(ct)
	b[10] = 0
	b[11] = 0
	b[12] = interlace
	return b
}

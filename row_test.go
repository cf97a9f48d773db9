package pngdec

import "testing"

func TestPack565(t *testing.T) {
	v := pack565(0xFF, 0x00, 0x00)
	if v != 0xF800 {
		t.Fatalf("pack565(red) = %#04x, want 0xf800", v)
	}
	v = pack565(0x00, 0xFF, 0x00)
	if v != 0x07E0 {
		t.Fatalf("pack565(green) = %#04x, want 0x07e0", v)
	}
	v = pack565(0x00, 0x00, 0xFF)
	if v != 0x001F {
		t.Fatalf("pack565(blue) = %#04x, want 0x001f", v)
	}
}

func TestPutRGB565Endianness(t *testing.T) {
	var dst [2]byte
	putRGB565(dst[:], 0x1234, LittleEndian)
	if dst != [2]byte{0x34, 0x12} {
		t.Fatalf("little endian = %v, want [0x34 0x12]", dst)
	}
	putRGB565(dst[:], 0x1234, BigEndian)
	if dst != [2]byte{0x12, 0x34} {
		t.Fatalf("big endian = %v, want [0x12 0x34]", dst)
	}
}

func TestToRGB565TrueColor(t *testing.T) {
	h := ImageHeader{ColorType: ColorTrueColor, BitDepth: 8, Width: 1}
	pixels := []byte{0xFF, 0x00, 0x00} // solid red
	dst := make([]byte, 2)
	if err := toRGB565(dst, pixels, 1, h, &Palette{}, &transparentColor{}, RGB{}, LittleEndian, nil); err != nil {
		t.Fatalf("toRGB565: %v", err)
	}
	got := uint16(dst[0]) | uint16(dst[1])<<8
	if got != 0xF800 {
		t.Fatalf("got %#04x, want 0xf800 (red)", got)
	}
}

func TestMakeMaskThreshold(t *testing.T) {
	h := ImageHeader{ColorType: ColorTrueColorAlpha, BitDepth: 8, Width: 2}
	// pixel 0 fully transparent, pixel 1 fully opaque
	pixels := []byte{10, 20, 30, 0, 40, 50, 60, 255}
	dst := make([]byte, 1)
	if err := makeMask(dst, pixels, 2, h, &Palette{}, &transparentColor{}, 1); err != nil {
		t.Fatalf("makeMask: %v", err)
	}
	// bit 7 (MSB) = pixel 0 -> 0, bit 6 = pixel 1 -> 1
	if dst[0] != 0b01000000 {
		t.Fatalf("mask = %08b, want 01000000", dst[0])
	}
}

func TestMakeMaskIndexedPalette(t *testing.T) {
	h := ImageHeader{ColorType: ColorIndexed, BitDepth: 8, Width: 2}
	pal := &Palette{Count: 2, HasAlpha: true}
	pal.Alpha[0] = 0
	pal.Alpha[1] = 255
	pixels := []byte{0, 1}
	dst := make([]byte, 1)
	if err := makeMask(dst, pixels, 2, h, pal, &transparentColor{}, 1); err != nil {
		t.Fatalf("makeMask: %v", err)
	}
	if dst[0] != 0b01000000 {
		t.Fatalf("mask = %08b, want 01000000", dst[0])
	}
}

func TestExpandSampleBitReplication(t *testing.T) {
	cases := []struct {
		v, depth int
		want     uint8
	}{
		{1, 1, 0xFF},
		{0, 1, 0x00},
		{3, 2, 0xFF},
		{15, 4, 0xFF},
		{200, 8, 200},
	}
	for _, c := range cases {
		if got := expandSample(uint8(c.v), c.depth); got != c.want {
			t.Errorf("expandSample(%d,%d) = %#02x, want %#02x", c.v, c.depth, got, c.want)
		}
	}
}

func TestSampleAtSubByte(t *testing.T) {
	// Two 4-bit samples packed into one byte: high nibble 0xA, low 0x5.
	data := []byte{0xA5}
	if got := sampleAt(data, 0, 4); got != 0xA {
		t.Fatalf("sampleAt(0) = %#x, want 0xa", got)
	}
	if got := sampleAt(data, 1, 4); got != 0x5 {
		t.Fatalf("sampleAt(1) = %#x, want 0x5", got)
	}
}

// tc.gray holds the raw (unexpanded) tRNS sample, so the transparency
// comparison must use the raw sample value, not its 8-bit expansion.
func TestMakeMaskSubByteGrayscaleTransparency(t *testing.T) {
	h := ImageHeader{ColorType: ColorGrayscale, BitDepth: 4, Width: 2}
	tc := &transparentColor{set: true, gray: 0x5} // raw 4-bit sample, not 0x55
	// High nibble 0x5 (transparent, matches tc.gray), low nibble 0xA (opaque).
	pixels := []byte{0x5A}
	dst := make([]byte, 1)
	if err := makeMask(dst, pixels, 2, h, &Palette{}, tc, 128); err != nil {
		t.Fatalf("makeMask: %v", err)
	}
	if dst[0] != 0b01000000 {
		t.Fatalf("mask = %08b, want 01000000 (sample 0 transparent, sample 1 opaque)", dst[0])
	}
}

func TestToRGB565SubByteGrayscaleTransparency(t *testing.T) {
	h := ImageHeader{ColorType: ColorGrayscale, BitDepth: 4, Width: 2}
	tc := &transparentColor{set: true, gray: 0x5}
	pixels := []byte{0x5A}
	dst := make([]byte, 4)
	bg := RGB{R: 0, G: 0, B: 0}
	if err := toRGB565(dst, pixels, 2, h, &Palette{}, tc, bg, LittleEndian, nil); err != nil {
		t.Fatalf("toRGB565: %v", err)
	}
	got := uint16(dst[0]) | uint16(dst[1])<<8
	if got != 0 {
		t.Fatalf("transparent sample composited over black = %#04x, want 0x0000", got)
	}
}

// Command pngdec decodes a PNG file row by row and reports its
// geometry and a running checksum of the delivered pixel data. It
// exists mainly to exercise the library end to end the way an
// embedded host application would: open, decode, inspect, close.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/XC-Zero/pngdec"
)

func main() {
	checkCRC := flag.Bool("crc", true, "verify chunk CRC-32")
	fastPalette := flag.Bool("fast-palette", false, "precompute RGB565 palette for indexed images")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pngdec [flags] <file.png>")
		os.Exit(2)
	}

	dec := pngdec.NewDecoder(pngdec.DefaultMaxBufferedPixels)

	var rows int
	var checksum byte
	draw := func(row *pngdec.RowDescriptor) int {
		rows++
		for _, b := range row.Pixels {
			checksum ^= b
		}
		return 0
	}

	cb := pngdec.FileCallbacks{
		Open: func(name string) (any, int64, error) {
			f, err := os.Open(name)
			if err != nil {
				return nil, 0, err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, 0, err
			}
			return f, info.Size(), nil
		},
		Read: func(h any, buf []byte) (int, error) {
			return h.(*os.File).Read(buf)
		},
		Seek: func(h any, pos int64) (int64, error) {
			return h.(*os.File).Seek(pos, os.SEEK_SET)
		},
		Close: func(h any) error {
			return h.(*os.File).Close()
		},
	}

	if err := dec.OpenFile(flag.Arg(0), cb, draw); err != nil {
		log.Fatalf("open: %v", err)
	}
	defer dec.Close()

	var opts pngdec.Options
	if *checkCRC {
		opts |= pngdec.OptCheckCRC
	}
	if *fastPalette {
		opts |= pngdec.OptFastPalette
	}

	if err := dec.Decode(nil, opts); err != nil {
		log.Fatalf("decode (%s): %v", pngdec.StatusOf(err), err)
	}

	fmt.Printf("%dx%d color-type=%d bpp=%d interlaced=%v rows=%d checksum=%02x\n",
		dec.Width(), dec.Height(), dec.PixelType(), dec.BitsPerPixel(), dec.IsInterlaced(), rows, checksum)
	for _, t := range dec.TextChunks() {
		fmt.Printf("text %q: %q\n", t.Keyword, t.Text)
	}
}

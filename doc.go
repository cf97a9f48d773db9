// Package pngdec is a streaming PNG decoder built for constrained,
// embedded targets. It parses the chunk structure, inflates the IDAT
// stream with zlib, reverses the per-scanline filter, drives Adam7
// interlacing when present, and delivers one decoded row at a time to
// a caller-supplied sink. It never buffers a whole image: the working
// set is a handful of fixed-capacity scratch buffers owned by the
// Decoder value itself.
package pngdec

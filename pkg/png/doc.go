// Package png decodes and encodes PNG images held as 8-bit RGBA scanlines.
//
// Decoding accepts every non-interlaced color type and bit depth from the
// PNG specification and normalizes the pixels to RGBA: palettes are
// resolved, grayscale is replicated into R, G and B, missing alpha becomes
// 0xFF (or 0 where a tRNS chunk says so), and 16-bit samples keep their high
// byte. Encoding always writes 8-bit RGBA. Ancillary chunks other than PLTE
// and tRNS are verified and skipped.
//
// The PNG specification is at https://www.w3.org/TR/PNG/.
package png

// Package utf7 implements the modified UTF-7 encoding used for IMAP mailbox
// names, defined in RFC 3501 section 5.1.3.
package utf7

import (
	"encoding/base64"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// modified base64 alphabet: "/" is replaced by "," and padding is omitted.
var b64enc = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,").WithPadding(base64.NoPadding)

// Encoding is the modified UTF-7 encoding.
var Encoding encoding.Encoding = enc{}

type enc struct{}

func (enc) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &encoder{}}
}

func (enc) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &decoder{}}
}

// directly-encodable characters, RFC 3501 section 5.1.3.
func isDirect(r rune) bool {
	return r >= 0x20 && r <= 0x7E
}

type encoder struct {
	shifted bool
	pending []uint16
}

func (e *encoder) Reset() {
	e.shifted = false
	e.pending = nil
}

func (e *encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8DecodeRune(src[nSrc:], atEOF)
		if size == 0 {
			// incomplete rune at end of buffer
			break
		}
		if isDirect(r) {
			if e.shifted {
				if n, ok := e.flush(dst[nDst:]); !ok {
					return nDst, nSrc, transform.ErrShortDst
				} else {
					nDst += n
				}
				e.shifted = false
			}
			if r == '&' {
				if nDst+2 > len(dst) {
					return nDst, nSrc, transform.ErrShortDst
				}
				dst[nDst] = '&'
				dst[nDst+1] = '-'
				nDst += 2
			} else {
				if nDst+1 > len(dst) {
					return nDst, nSrc, transform.ErrShortDst
				}
				dst[nDst] = byte(r)
				nDst++
			}
		} else {
			if !e.shifted {
				if nDst+1 > len(dst) {
					return nDst, nSrc, transform.ErrShortDst
				}
				dst[nDst] = '&'
				nDst++
				e.shifted = true
			}
			e.pending = append(e.pending, utf16.Encode([]rune{r})...)
		}
		nSrc += size
	}
	if atEOF && e.shifted {
		n, ok := e.flush(dst[nDst:])
		if !ok {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += n
		e.shifted = false
	}
	return nDst, nSrc, nil
}

// flush base64-encodes e.pending and writes "<b64>-" to dst, clearing pending.
func (e *encoder) flush(dst []byte) (int, bool) {
	if len(e.pending) == 0 {
		if len(dst) < 1 {
			return 0, false
		}
		dst[0] = '-'
		return 1, true
	}
	raw := make([]byte, len(e.pending)*2)
	for i, u := range e.pending {
		raw[2*i] = byte(u >> 8)
		raw[2*i+1] = byte(u)
	}
	encoded := b64enc.EncodeToString(raw)
	if len(dst) < len(encoded)+1 {
		return 0, false
	}
	copy(dst, encoded)
	dst[len(encoded)] = '-'
	e.pending = nil
	return len(encoded) + 1, true
}

func utf8DecodeRune(b []byte, atEOF bool) (rune, int) {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size == 1 && !atEOF && len(b) < utf8.UTFMax {
		// might be a valid rune split across Transform calls
		return 0, 0
	}
	return r, size
}

type decoder struct {
	shifted bool
	b64buf  []byte
}

func (d *decoder) Reset() {
	d.shifted = false
	d.b64buf = nil
}

func (d *decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if !d.shifted {
			if c == '&' {
				d.shifted = true
				d.b64buf = d.b64buf[:0]
				nSrc++
				continue
			}
			if nDst+1 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		// shifted: accumulate modified-base64 characters until '-'
		if c == '-' {
			n, ok := d.decodeRun(dst[nDst:])
			if !ok {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += n
			d.shifted = false
			nSrc++
			continue
		}
		d.b64buf = append(d.b64buf, c)
		nSrc++
	}
	return nDst, nSrc, nil
}

func (d *decoder) decodeRun(dst []byte) (int, bool) {
	if len(d.b64buf) == 0 {
		// "&-" encodes a literal "&"
		if len(dst) < 1 {
			return 0, false
		}
		dst[0] = '&'
		return 1, true
	}
	raw, err := b64enc.DecodeString(string(d.b64buf))
	if err != nil || len(raw)%2 != 0 {
		raw = nil
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	runes := utf16.Decode(units)
	n := 0
	for _, r := range runes {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = utf8.RuneLen(utf8.RuneError)
		}
		if n+size > len(dst) {
			return n, false
		}
		n += utf8.EncodeRune(dst[n:], r)
	}
	d.b64buf = d.b64buf[:0]
	return n, true
}

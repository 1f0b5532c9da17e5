package png

import "sync"

// polynomial is the reflected form of the zlib/PNG CRC-32 polynomial.
const polynomial = 0xEDB88320

var crcTable = sync.OnceValue(func() *[256]uint32 {
	var t [256]uint32
	for n := range t {
		c := uint32(n)
		for range 8 {
			if c&1 == 1 {
				c = polynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		t[n] = c
	}
	return &t
})

// Table returns the shared CRC-32 lookup table. It is built on first use
// and must not be modified.
func Table() *[256]uint32 {
	return crcTable()
}

// Update folds p into a running (pre-inverted) CRC register.
func Update(crc uint32, p []byte) uint32 {
	t := crcTable()
	for _, b := range p {
		crc = t[byte(crc)^b] ^ (crc >> 8)
	}
	return crc
}

// Checksum returns the PNG chunk CRC of p.
func Checksum(p []byte) uint32 {
	return ^Update(0xFFFFFFFF, p)
}

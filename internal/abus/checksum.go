package abus

// checksumTable holds 16 odd primes, indexed by byte position & 0xF.
var checksumTable = [16]uint16{
	0x07DB, 0x17E1, 0x27E3, 0x37DF,
	0x47DD, 0x57E5, 0x67DF, 0x77E1,
	0x87DD, 0x97EB, 0xA7E3, 0xB7EF,
	0xC7E1, 0xD7DB, 0xE7DD, 0xF7E7,
}

// Checksum computes the A-bus frame checksum over b.
//
// Each byte is whitened with 0x5A and multiplied by the table entry for its
// position; the products are summed and the sum truncated to 16 bits.
func Checksum(b []byte) uint16 {
	var sum uint32
	for i, c := range b {
		sum += uint32(c^0x5A) * uint32(checksumTable[i&0xF])
	}
	return uint16(sum)
}

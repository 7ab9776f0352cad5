package formats

// EncodeByte maps b to two letters in 'A'..'P', high nibble first.
func EncodeByte(b uint8) [2]byte {
	return [2]byte{'A' + (b>>4)&0xF, 'A' + b&0xF}
}

// DecodeByte reverses EncodeByte.
func DecodeByte(s [2]byte) uint8 {
	return (s[0]-'A')<<4 | (s[1] - 'A')
}

// appendByteText appends the two letter form of each byte to dst.
func appendByteText(dst []byte, bs ...uint8) []byte {
	for _, b := range bs {
		t := EncodeByte(b)
		dst = append(dst, t[0], t[1])
	}
	return dst
}

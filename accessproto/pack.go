package accessproto

import "encoding/binary"

// bit-packing helpers. These extend their argument slice by the
// amount of data encoded; builders size the backing array up front.

func puint8(b []byte, v uint8) []byte {
	return append(b, v)
}

func puint32(b []byte, v ...uint32) []byte {
	for _, vv := range v {
		var w [4]byte
		binary.LittleEndian.PutUint32(w[:], vv)
		b = append(b, w[:]...)
	}
	return b
}

func pstring(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

func pheader(b []byte, cmd byte, rid Rid) []byte {
	b = append(b, cmd)
	return append(b, rid[:]...)
}

// Uint32 reads the little-endian word at off. The caller checks
// bounds.
func Uint32(p []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(p[off : off+4])
}

// PutUint32 writes v at off in place.
func PutUint32(p []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(p[off:off+4], v)
}

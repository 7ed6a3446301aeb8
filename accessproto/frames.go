package accessproto

// Reply and announcement builders. Each returns a complete datagram.

// ErrorFrame is an 'E' reply: the errno byte followed by three bytes
// of padding.
func ErrorFrame(rid Rid, code byte) []byte {
	b := pheader(make([]byte, 0, 8), RplError, rid)
	return append(b, code, 0, 0, 0)
}

// ResultFrame is an 'R' reply carrying payload, which may be empty.
func ResultFrame(rid Rid, payload []byte) []byte {
	b := pheader(make([]byte, 0, HeaderLen+len(payload)), RplResult, rid)
	return append(b, payload...)
}

// DataFrame is a 'D' reply carrying raw file data.
func DataFrame(rid Rid, data []byte) []byte {
	b := pheader(make([]byte, 0, HeaderLen+len(data)), RplData, rid)
	return append(b, data...)
}

// WriteRequestFrame is a 'w' packet asking the client for the bytes
// [relPos, relEnd) of the transfer, relative to its start position.
func WriteRequestFrame(rid Rid, relPos, relEnd uint32) []byte {
	b := pheader(make([]byte, 0, 16), RplReqData, rid)
	return puint32(b, relPos, 0, relEnd)
}

// AppendUint32 appends words in wire order; reply payloads are built
// with it.
func AppendUint32(b []byte, v ...uint32) []byte {
	return puint32(b, v...)
}

// AppendFileDesc encodes the 20-byte metadata record.
func AppendFileDesc(b []byte, fd FileDesc) []byte {
	return puint32(b, fd.Load, fd.Exec, fd.Length, fd.Attrs, fd.Type)
}

// AppendDirEntry encodes one catalogue entry: FileDesc, the display
// name, a NUL, and zero padding to a 4-byte boundary.
func AppendDirEntry(b []byte, fd FileDesc, name string) []byte {
	b = AppendFileDesc(b, fd)
	b = pstring(b, name)
	for len(b)%4 != 0 {
		b = puint8(b, 0)
	}
	return b
}

// DirEntrySize is the encoded size of an entry for name, including
// the NUL and padding.
func DirEntrySize(name string) int {
	return (20 + len(name) + 1 + 3) &^ 3
}

// ReadBlock is the S+B reply to RREAD: header, data, and a trailer
// carrying the byte count and the new file position.
func ReadBlock(rid Rid, data []byte, newPos uint32) []byte {
	b := make([]byte, 0, 2*HeaderLen+16+len(data))
	b = pheader(b, RplStart, rid)
	b = puint32(b, uint32(len(data)), ReadTrailerLen)
	b = append(b, data...)
	b = pheader(b, RplBody, rid)
	return puint32(b, uint32(len(data)), newPos)
}

// OpenDirBlock is the S+B catalogue reply to a 'B'-framed ROPENDIR.
// entries is a sequence of AppendDirEntry records.
func OpenDirBlock(rid Rid, entries []byte, handle uint32) []byte {
	b := make([]byte, 0, 2*HeaderLen+8+len(entries)+32)
	b = pheader(b, RplStart, rid)
	b = puint32(b, uint32(len(entries)), OpenDirTrailerLen)
	b = append(b, entries...)
	b = pheader(b, RplBody, rid)
	rounded := (uint32(len(entries)) + 2047) &^ 2047
	shareVal := (handle & 0xFFFFFF00) ^ 0xFFFFFF02
	return puint32(b,
		0xFFFFCD00, // load
		0,          // exec
		rounded,
		0x13, // access
		shareVal,
		handle,
		uint32(len(entries)),
		0xFFFFFFFF, // end marker
	)
}

// ReadDirBlock is the S+B continuation reply to RREADDIR.
func ReadDirBlock(rid Rid, entries []byte) []byte {
	b := make([]byte, 0, 2*HeaderLen+8+len(entries)+8)
	b = pheader(b, RplStart, rid)
	b = puint32(b, uint32(len(entries)), ReadDirTrailerLen)
	b = append(b, entries...)
	b = pheader(b, RplBody, rid)
	return puint32(b, uint32(len(entries)), 0xFFFFFFFF)
}

// AnnounceFrame is a Freeway share or printer announcement: word0
// selects the object class, and both strings are NUL-terminated with
// their terminated lengths packed into the third word.
func AnnounceFrame(word0 uint32, name, desc string) []byte {
	nameLen := uint32(len(name) + 1)
	descLen := uint32(len(desc) + 1)
	b := make([]byte, 0, 12+nameLen+descLen)
	b = puint32(b, word0, MsgFlagsDefault, descLen<<16|nameLen)
	b = pstring(b, name)
	return pstring(b, desc)
}

// DeadHandlesFrame announces handle ids closed since the last
// broadcast: the RDEADHANDLES op byte, padding, a count, and the ids.
func DeadHandlesFrame(ids []uint32) []byte {
	b := make([]byte, 0, 8+4*len(ids))
	b = append(b, OpDeadHandles, 0, 0, 0)
	b = puint32(b, uint32(len(ids)))
	return puint32(b, ids...)
}

// RevealFrame is the Access+ reply disclosing a protected share to a
// client that presented its PIN.
func RevealFrame(key uint32, name string, attrs byte) []byte {
	b := make([]byte, 0, 16+len(name)+2)
	b = puint32(b, MsgShareReveal, MsgDiscStartup, MsgFlagsDefault|uint32(len(name)), key)
	b = append(b, name...)
	return append(b, attrs, 0)
}

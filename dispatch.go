package access

import (
	"bytes"
	"net"
	"os"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/riscos"
)

// handleRPC classifies one datagram from the RPC port and dispatches
// on its command byte. A packet too short to carry a reply id is
// dropped; a 'd' data packet is answered only through the write
// transfer it belongs to (see handleData); everything else gets an
// answer.
func (s *Server) handleRPC(p []byte, src *net.UDPAddr) {
	cmd, rid, ok := accessproto.ParseHeader(p)
	if !ok {
		return
	}
	if s.debug() {
		dump := p
		if len(dump) > 32 {
			dump = dump[:32]
		}
		s.debugf("rpc %q len=%d from %v: % x", cmd, len(p), src, dump)
	}
	s.Metrics.countRequest(cmd)

	switch cmd {
	case accessproto.CmdPath:
		s.handlePathCmd(p, rid, src)
	case accessproto.CmdPathEx:
		s.handlePathExCmd(p, rid, src)
	case accessproto.CmdHandle:
		s.handleHandleCmd(p, rid, src)
	case accessproto.CmdQuery:
		s.handleQueryCmd(p, rid, src)
	case accessproto.CmdData:
		s.handleData(p, rid, src)
	default:
		s.debugf("rpc: unsupported command %q", cmd)
		s.replyErrno(src, rid, errNotSupported)
	}
}

func (s *Server) sendRPC(src *net.UDPAddr, frame []byte) {
	if _, err := s.rpc.WriteToUDP(frame, src); err != nil {
		s.logf("rpc: send to %v: %v", src, err)
	}
}

func (s *Server) replyErr(src *net.UDPAddr, rid accessproto.Rid, code byte) {
	s.debugf("rpc: error reply %d", code)
	s.sendRPC(src, accessproto.ErrorFrame(rid, code))
}

func (s *Server) replyErrno(src *net.UDPAddr, rid accessproto.Rid, err error) {
	s.replyErr(src, rid, errnoByte(err))
}

func (s *Server) replyOK(src *net.UDPAddr, rid accessproto.Rid, payload []byte) {
	s.sendRPC(src, accessproto.ResultFrame(rid, payload))
}

// cstring reads a NUL-terminated string from untrusted input; a
// missing terminator takes the whole remainder.
func cstring(p []byte) string {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		return string(p[:i])
	}
	return string(p)
}

// checkShareAuth enforces §authentication for a path-bearing
// request: a protected share demands a live cache entry for the
// source address. Unknown shares pass; resolution reports those.
func (s *Server) checkShareAuth(src *net.UDPAddr, roPath string) bool {
	name, _ := splitShare(roPath)
	share := s.Config.ShareNamed(name)
	if share == nil || !share.Protected() {
		return true
	}
	if s.authed.check(src.IP.String(), share.Name, s.now()) {
		return true
	}
	s.debugf("rpc: %v not authenticated for share %q", src.IP, share.Name)
	return false
}

// statDesc builds the 20-byte metadata record for a host object.
func statDesc(fi os.FileInfo, filetype uint32) accessproto.FileDesc {
	cs := riscos.TimeToCentiseconds(fi.ModTime())
	desc := accessproto.FileDesc{
		Load:   riscos.LoadAddr(filetype, cs),
		Exec:   riscos.ExecAddr(cs),
		Length: uint32(fi.Size()),
		Attrs:  riscos.AttrsFromMode(fi.Mode()),
		Type:   riscos.ObjectFile,
	}
	if fi.IsDir() {
		desc.Length = accessproto.DirLength
		desc.Type = riscos.ObjectDir
	}
	return desc
}

// buildDirEntries encodes catalogue entries for a directory,
// skipping the first start visible entries. Hidden names and entries
// that cannot be stat'ed are passed over; encoding stops at the
// first entry that would overflow the datagram budget.
func (s *Server) buildDirEntries(dirPath string, start, defaultType uint32) []byte {
	ents, err := os.ReadDir(dirPath)
	if err != nil {
		return nil
	}
	buf := make([]byte, 0, accessproto.MaxEntriesLen)
	var idx uint32
	for _, e := range ents {
		name := e.Name()
		if name[0] == '.' {
			continue
		}
		if idx < start {
			idx++
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		filetype := uint32(riscos.FiletypeDir)
		if !fi.IsDir() {
			filetype = s.filetypeFor(name, defaultType)
		}
		display := riscos.StripTypeSuffix(name)
		if len(buf)+accessproto.DirEntrySize(display) > accessproto.MaxEntriesLen {
			break
		}
		buf = accessproto.AppendDirEntry(buf, statDesc(fi, filetype), display)
		idx++
	}
	return buf
}

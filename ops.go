package access

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/config"
	"github.com/andrewtimmins/riscos-access-server/internal/sys"
	"github.com/andrewtimmins/riscos-access-server/riscos"
)

// handlePathCmd serves the 'A' family:
// cmd(1) rid(3) code(4) handle(4) path(...NUL).
// RACCESS and RRENAME carry an extra word before the handle, pushing
// their path to offset 16.
func (s *Server) handlePathCmd(p []byte, rid accessproto.Rid, src *net.UDPAddr) {
	if len(p) < 12 {
		s.replyErrno(src, rid, errInvalid)
		return
	}
	code := accessproto.Uint32(p, 4)
	hid := accessproto.Uint32(p, 8)

	pathOff := 12
	if code == accessproto.OpAccess || code == accessproto.OpRename {
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		pathOff = 16
	}
	var roPath string
	if len(p) > pathOff {
		roPath = cstring(p[pathOff:])
	}

	if roPath != "" && !s.checkShareAuth(src, roPath) {
		s.replyErrno(src, rid, errAccess)
		return
	}

	switch code {
	case accessproto.OpFind:
		s.opFind(rid, roPath, src)
	case accessproto.OpOpenIn:
		s.opOpen(rid, roPath, os.O_RDONLY, src)
	case accessproto.OpOpenUp:
		s.opOpen(rid, roPath, os.O_RDWR, src)
	case accessproto.OpOpenDir:
		s.opOpenDirHandle(rid, roPath, src)
	case accessproto.OpCreate:
		s.opCreate(rid, roPath, src)
	case accessproto.OpCreateDir:
		s.opCreateDir(rid, roPath, src)
	case accessproto.OpDelete:
		s.opDelete(rid, roPath, src)
	case accessproto.OpAccess:
		s.opAccess(rid, accessproto.Uint32(p, 8), roPath, src)
	case accessproto.OpFreeSpace:
		s.opFreeSpace(rid, roPath, src)
	case accessproto.OpFreeSpace64:
		s.opFreeSpace64(rid, src)
	case accessproto.OpRename:
		s.opRename(rid, roPath, src)
	case accessproto.OpClose:
		s.handles.remove(hid)
		s.replyOK(src, rid, nil)
	case accessproto.OpRead:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opRead(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpWrite:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		h := s.handles.get(hid)
		if h == nil || h.file == nil {
			s.replyErrno(src, rid, errBadHandle)
			return
		}
		s.startWrite(rid, h, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpReadDir:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		h := s.handles.get(hid)
		if h == nil || h.kind != kindDir || h.hostPath == "" {
			s.replyErrno(src, rid, errNotDir)
			return
		}
		entries := s.buildDirEntries(h.hostPath, accessproto.Uint32(p, 12), h.defaultType)
		s.sendRPC(src, accessproto.ReadDirBlock(rid, entries))
	case accessproto.OpEnsure:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opEnsure(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpSetLength:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetLength(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpSetInfo:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetInfo(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpGetSeqPtr:
		s.opGetSeqPtr(rid, hid, src)
	case accessproto.OpSetSeqPtr:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetSeqPtr(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpZero:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opZero(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	default:
		s.debugf("rpc: unsupported path op %#x", code)
		s.replyErrno(src, rid, errNotSupported)
	}
}

// handlePathExCmd serves the 'B' family:
// cmd(1) rid(3) code(4) handle(4) extra(4) path(...NUL).
func (s *Server) handlePathExCmd(p []byte, rid accessproto.Rid, src *net.UDPAddr) {
	if len(p) < 16 {
		s.replyErrno(src, rid, errInvalid)
		return
	}
	code := accessproto.Uint32(p, 4)
	hid := accessproto.Uint32(p, 8)
	extra := accessproto.Uint32(p, 12)
	var roPath string
	if len(p) > 16 {
		roPath = cstring(p[16:])
	}

	switch code {
	case accessproto.OpOpenDir:
		if roPath != "" && !s.checkShareAuth(src, roPath) {
			s.replyErrno(src, rid, errAccess)
			return
		}
		s.opOpenDirCatalogue(rid, roPath, src)
	case accessproto.OpRead:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opRead(rid, hid, extra, accessproto.Uint32(p, 16), src)
	case accessproto.OpReadDir:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		h := s.handles.get(hid)
		if h == nil || h.kind != kindDir || h.hostPath == "" {
			s.replyErrno(src, rid, errBadHandle)
			return
		}
		entries := s.buildDirEntries(h.hostPath, 0, h.defaultType)
		s.sendRPC(src, accessproto.ReadDirBlock(rid, entries))
	default:
		s.debugf("rpc: unsupported extended op %#x", code)
		s.replyErrno(src, rid, errNotSupported)
	}
}

// handleHandleCmd serves the 'a' family:
// cmd(1) rid(3) code(4) handle(4) args(...).
func (s *Server) handleHandleCmd(p []byte, rid accessproto.Rid, src *net.UDPAddr) {
	if len(p) < 12 {
		s.replyErrno(src, rid, errInvalid)
		return
	}
	code := accessproto.Uint32(p, 4)
	hid := accessproto.Uint32(p, 8)

	switch code {
	case accessproto.OpClose:
		if s.handles.get(hid) == nil {
			s.replyErrno(src, rid, errBadHandle)
			return
		}
		s.handles.remove(hid)
		s.replyOK(src, rid, nil)
	case accessproto.OpRead:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opReadRaw(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpWrite:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		h := s.handles.get(hid)
		if h == nil || h.file == nil {
			s.replyErrno(src, rid, errBadHandle)
			return
		}
		s.startWrite(rid, h, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpReadDir:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		h := s.handles.get(hid)
		if h == nil || h.kind != kindDir || h.hostPath == "" {
			s.replyErrno(src, rid, errBadHandle)
			return
		}
		entries := s.buildDirEntries(h.hostPath, accessproto.Uint32(p, 12), h.defaultType)
		s.sendRPC(src, accessproto.ReadDirBlock(rid, entries))
	case accessproto.OpEnsure:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opEnsure(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpSetLength:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetLength(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpSetInfo:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetInfo(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpGetSeqPtr:
		s.opGetSeqPtr(rid, hid, src)
	case accessproto.OpSetSeqPtr:
		if len(p) < 16 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opSetSeqPtr(rid, hid, accessproto.Uint32(p, 12), src)
	case accessproto.OpZero:
		if len(p) < 20 {
			s.replyErrno(src, rid, errInvalid)
			return
		}
		s.opZero(rid, hid, accessproto.Uint32(p, 12), accessproto.Uint32(p, 16), src)
	case accessproto.OpVersion:
		s.replyOK(src, rid, []byte{protocolVersion, 0})
	default:
		s.debugf("rpc: unsupported handle op %#x", code)
		s.replyErrno(src, rid, errNotSupported)
	}
}

// handleQueryCmd serves the 'F' family: cmd(1) rid(3) code(4)
// handle(4); the handle is carried but unused.
func (s *Server) handleQueryCmd(p []byte, rid accessproto.Rid, src *net.UDPAddr) {
	if len(p) < 12 {
		s.replyErrno(src, rid, errInvalid)
		return
	}
	switch code := accessproto.Uint32(p, 4); code {
	case accessproto.OpDeadHandles:
		// dead handles are pushed by broadcast; the poll reply is
		// always empty
		s.replyOK(src, rid, accessproto.AppendUint32(nil, 0))
	case accessproto.OpVersion:
		s.replyOK(src, rid, accessproto.AppendUint32(nil, protocolVersion))
	default:
		s.debugf("rpc: unsupported query op %#x", code)
		s.replyErrno(src, rid, errNotSupported)
	}
}

const protocolVersion = 2

// resolveExisting resolves a RISC OS path and applies the ,xxx
// suffix fallback.
func (s *Server) resolveExisting(roPath string) (string, *config.Share, error) {
	host, share, err := resolvePath(s.Config.Shares, roPath)
	if err != nil {
		return "", nil, err
	}
	actual, err := findWithTypeSuffix(host)
	return actual, share, err
}

// filetypeFor decides a file's type: the ,xxx suffix and extension
// maps first, then the share's configured default for names with no
// extension at all.
func (s *Server) filetypeFor(name string, defaultType uint32) uint32 {
	t := riscos.FiletypeForName(name, s.Config.MimeMap)
	if t != riscos.FiletypeData || defaultType == 0 {
		return t
	}
	if strings.ContainsAny(name, ".,") {
		return t
	}
	return defaultType
}

func (s *Server) opFind(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	actual, share, err := s.resolveExisting(roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(actual)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	filetype := uint32(riscos.FiletypeDir)
	if !fi.IsDir() {
		filetype = s.filetypeFor(filepath.Base(actual), share.DefaultType)
	}
	s.replyOK(src, rid, accessproto.AppendFileDesc(nil, statDesc(fi, filetype)))
}

func (s *Server) opOpen(rid accessproto.Rid, roPath string, flag int, src *net.UDPAddr) {
	actual, share, err := s.resolveExisting(roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(actual)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	cs := riscos.TimeToCentiseconds(fi.ModTime())

	if fi.IsDir() {
		h, ok := s.handles.add(kindDir, nil, actual,
			riscos.LoadAddr(riscos.FiletypeDir, cs), riscos.ExecAddr(cs),
			0, riscos.AttrsFromMode(fi.Mode()))
		if !ok {
			s.replyErrno(src, rid, errTooManyOpen)
			return
		}
		h.defaultType = share.DefaultType
		reply := accessproto.AppendFileDesc(nil, statDesc(fi, riscos.FiletypeDir))
		s.replyOK(src, rid, accessproto.AppendUint32(reply, h.id))
		return
	}

	f, err := os.OpenFile(actual, flag, 0)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	filetype := s.filetypeFor(filepath.Base(actual), share.DefaultType)
	h, ok := s.handles.add(kindFile, f, actual,
		riscos.LoadAddr(filetype, cs), riscos.ExecAddr(cs),
		uint32(fi.Size()), riscos.AttrsFromMode(fi.Mode()))
	if !ok {
		f.Close()
		s.replyErrno(src, rid, errTooManyOpen)
		return
	}
	reply := accessproto.AppendFileDesc(nil, statDesc(fi, filetype))
	s.replyOK(src, rid, accessproto.AppendUint32(reply, h.id))
}

// opOpenDirHandle is the 'A'-framed ROPENDIR: the reply carries the
// new handle and its token, not a catalogue.
func (s *Server) opOpenDirHandle(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	host, share, err := resolvePath(s.Config.Shares, roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(host)
	if err != nil || !fi.IsDir() {
		s.replyErrno(src, rid, errNotDir)
		return
	}
	h, ok := s.handles.add(kindDir, nil, host, 0, 0, 0, riscos.AttrsFromMode(fi.Mode()))
	if !ok {
		s.replyErrno(src, rid, errTooManyOpen)
		return
	}
	h.defaultType = share.DefaultType
	s.replyOK(src, rid, accessproto.AppendUint32(nil, h.id, h.token))
}

// opOpenDirCatalogue is the 'B'-framed ROPENDIR: open a handle and
// reply with the full catalogue block. A bare share name resolves to
// the share root.
func (s *Server) opOpenDirCatalogue(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	host, share, err := resolvePath(s.Config.Shares, roPath)
	if err != nil {
		share = s.Config.ShareNamed(roPath)
		if share == nil {
			s.replyErrno(src, rid, errNotFound)
			return
		}
		host = share.Path
	}
	fi, err := os.Stat(host)
	if err != nil || !fi.IsDir() {
		s.replyErrno(src, rid, errNotDir)
		return
	}
	h, ok := s.handles.add(kindDir, nil, host, 0, 0, 0, riscos.AttrsFromMode(fi.Mode()))
	if !ok {
		s.replyErrno(src, rid, errTooManyOpen)
		return
	}
	h.defaultType = share.DefaultType
	entries := s.buildDirEntries(host, 0, h.defaultType)
	s.sendRPC(src, accessproto.OpenDirBlock(rid, entries, h.id))
}

func (s *Server) opCreate(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	host, share, err := resolvePath(s.Config.Shares, roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	if parent := filepath.Dir(host); parent != "." {
		os.MkdirAll(parent, 0775)
	}
	f, err := os.OpenFile(host, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0664)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		s.replyErrno(src, rid, err)
		return
	}
	filetype := s.filetypeFor(filepath.Base(host), share.DefaultType)
	cs := riscos.TimeToCentiseconds(s.now())
	h, ok := s.handles.add(kindFile, f, host,
		riscos.LoadAddr(filetype, cs), riscos.ExecAddr(cs),
		0, riscos.AttrOwnerRead|riscos.AttrOwnerWrite|riscos.AttrPublicRead)
	if !ok {
		f.Close()
		s.replyErrno(src, rid, errTooManyOpen)
		return
	}
	reply := accessproto.AppendFileDesc(nil, statDesc(fi, filetype))
	s.replyOK(src, rid, accessproto.AppendUint32(reply, h.id))
}

func (s *Server) opCreateDir(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	host, share, err := resolvePath(s.Config.Shares, roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	if err := os.MkdirAll(host, 0775); err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(host)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	h, ok := s.handles.add(kindDir, nil, host, 0, 0, 0, riscos.AttrsFromMode(fi.Mode()))
	if !ok {
		s.replyErrno(src, rid, errTooManyOpen)
		return
	}
	h.defaultType = share.DefaultType
	reply := accessproto.AppendFileDesc(nil, statDesc(fi, riscos.FiletypeDir))
	s.replyOK(src, rid, accessproto.AppendUint32(reply, h.id))
}

func (s *Server) opDelete(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	actual, share, err := s.resolveExisting(roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(actual)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	filetype := uint32(riscos.FiletypeDir)
	if !fi.IsDir() {
		filetype = s.filetypeFor(filepath.Base(actual), share.DefaultType)
	}
	desc := statDesc(fi, filetype)
	if err := os.Remove(actual); err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	s.replyOK(src, rid, accessproto.AppendFileDesc(nil, desc))
}

func (s *Server) opAccess(rid accessproto.Rid, attrs uint32, roPath string, src *net.UDPAddr) {
	actual, share, err := s.resolveExisting(roPath)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	fi, err := os.Stat(actual)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	os.Chmod(actual, riscos.ModeFromAttrs(attrs))
	filetype := uint32(riscos.FiletypeDir)
	if !fi.IsDir() {
		filetype = s.filetypeFor(filepath.Base(actual), share.DefaultType)
	}
	s.replyOK(src, rid, accessproto.AppendFileDesc(nil, statDesc(fi, filetype)))
}

func (s *Server) opFreeSpace(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	var host string
	if roPath != "" {
		if resolved, _, err := resolvePath(s.Config.Shares, roPath); err == nil {
			host = resolved
		}
	}
	if host == "" {
		if len(s.Config.Shares) == 0 {
			s.replyErrno(src, rid, errNotFound)
			return
		}
		host = s.Config.Shares[0].Path
	}
	info, err := sys.GetFsInfo(host)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	free := clamp32(info.FreeBytes)
	s.replyOK(src, rid, accessproto.AppendUint32(nil, free, free, clamp32(info.TotalBytes)))
}

func (s *Server) opFreeSpace64(rid accessproto.Rid, src *net.UDPAddr) {
	var info sys.FsInfo
	if len(s.Config.Shares) > 0 {
		info, _ = sys.GetFsInfo(s.Config.Shares[0].Path)
	}
	s.replyOK(src, rid, accessproto.AppendUint32(nil,
		uint32(info.FreeBytes), uint32(info.FreeBytes>>32),
		uint32(info.FreeBytes), uint32(info.FreeBytes>>32),
		uint32(info.TotalBytes), uint32(info.TotalBytes>>32)))
}

func clamp32(v uint64) uint32 {
	if v > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(v)
}

// opRename reports ENOSYS for any old path that resolves, and the
// resolver's error otherwise: the new name arrives in a follow-up 'D'
// packet no shipped client sends.
func (s *Server) opRename(rid accessproto.Rid, roPath string, src *net.UDPAddr) {
	if _, _, err := resolvePath(s.Config.Shares, roPath); err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	s.debugf("rpc: rename %q not implemented", roPath)
	s.replyErrno(src, rid, errNotSupported)
}

// opRead answers with the S+B framing used by the 'A' and 'B'
// families.
func (s *Server) opRead(rid accessproto.Rid, hid, offset, length uint32, src *net.UDPAddr) {
	data, newPos, err := s.readAt(hid, offset, length, accessproto.MaxReadSize)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	s.sendRPC(src, accessproto.ReadBlock(rid, data, newPos))
}

// opReadRaw answers the 'a' family with a bare 'D' frame.
func (s *Server) opReadRaw(rid accessproto.Rid, hid, offset, length uint32, src *net.UDPAddr) {
	data, _, err := s.readAt(hid, offset, length, 2048)
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	s.sendRPC(src, accessproto.DataFrame(rid, data))
}

func (s *Server) readAt(hid, offset, length, max uint32) ([]byte, uint32, error) {
	h := s.handles.get(hid)
	if h == nil || h.file == nil {
		return nil, 0, errBadHandle
	}
	if length > max {
		length = max
	}
	buf := make([]byte, length)
	n, err := h.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	newPos := offset + uint32(n)
	h.seqPtr = newPos
	return buf[:n], newPos, nil
}

func (s *Server) opEnsure(rid accessproto.Rid, hid, size uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil || h.file == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	fi, err := h.file.Stat()
	if err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	if int64(size) > fi.Size() {
		if err := h.file.Truncate(int64(size)); err != nil {
			s.replyErrno(src, rid, err)
			return
		}
	}
	s.replyOK(src, rid, accessproto.AppendUint32(nil, size))
}

func (s *Server) opSetLength(rid accessproto.Rid, hid, newLen uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil || h.file == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	if err := h.file.Truncate(int64(newLen)); err != nil {
		s.replyErrno(src, rid, err)
		return
	}
	h.length = newLen
	s.replyOK(src, rid, accessproto.AppendUint32(nil, newLen))
}

// opSetInfo records new load/exec addresses on the handle, renames
// the backing file to carry the matching ,xxx suffix, and stamps the
// decoded timestamp onto the file.
func (s *Server) opSetInfo(rid accessproto.Rid, hid, load, exec uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	h.load = load
	h.exec = exec

	var filetype uint32
	if load&0xFFF00000 == 0xFFF00000 {
		filetype = (load >> 8) & 0xFFF

		if h.kind == kindFile && h.hostPath != "" {
			newPath := riscos.AppendTypeSuffix(h.hostPath, filetype)
			if newPath != h.hostPath {
				if err := os.Rename(h.hostPath, newPath); err == nil {
					h.hostPath = newPath
					s.debugf("rpc: setinfo renamed to %q", newPath)
				}
			}
		}

		cs := riscos.Centiseconds(load, exec)
		// reject timestamps before the Unix epoch
		if cs >= 220898880000 && h.hostPath != "" {
			sys.SetMtime(h.hostPath, riscos.TimeFromCentiseconds(cs))
		}
	}

	if h.hostPath != "" {
		if fi, err := os.Stat(h.hostPath); err == nil {
			s.replyOK(src, rid, accessproto.AppendFileDesc(nil, statDesc(fi, filetype)))
			return
		}
	}
	s.replyOK(src, rid, nil)
}

func (s *Server) opGetSeqPtr(rid accessproto.Rid, hid uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	s.replyOK(src, rid, accessproto.AppendUint32(nil, h.seqPtr))
}

func (s *Server) opSetSeqPtr(rid accessproto.Rid, hid, pos uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	h.seqPtr = pos
	s.replyOK(src, rid, accessproto.AppendUint32(nil, pos))
}

// opZero extends the file with zeros up to offset+length; existing
// data is never overwritten.
func (s *Server) opZero(rid accessproto.Rid, hid, offset, length uint32, src *net.UDPAddr) {
	h := s.handles.get(hid)
	if h == nil || h.file == nil {
		s.replyErrno(src, rid, errBadHandle)
		return
	}
	newLen := offset + length
	if fi, err := h.file.Stat(); err == nil && int64(newLen) > fi.Size() {
		if err := h.file.Truncate(int64(newLen)); err != nil {
			s.replyErrno(src, rid, err)
			return
		}
	}
	s.replyOK(src, rid, accessproto.AppendUint32(nil, newLen))
}

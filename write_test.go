package access

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/config"
)

// dataPacket builds a 'd' frame carrying payload at relPos.
func dataPacket(rid accessproto.Rid, relPos uint32, payload []byte) []byte {
	b := append([]byte{'d'}, rid[:]...)
	b = accessproto.AppendUint32(b, relPos)
	return append(b, payload...)
}

func openForWrite(t *testing.T, s *Server, rpc *captureConn, dir string) uint32 {
	t.Helper()
	writeFile(t, filepath.Join(dir, "out"), nil)
	s.handleRPC(framePath('A', testRid, "Data.out", accessproto.OpOpenUp, 0), testAddr)
	return accessproto.Uint32(checkResult(t, rpc.last(t)), 20)
}

func TestWriteTransfer(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	// ask to write 10 KiB at offset 0
	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 0, 10240), testAddr)
	want := append(append([]byte{'w'}, testRid[:]...),
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x20, 0x00, 0x00)
	if got := rpc.last(t); !bytes.Equal(got, want) {
		t.Fatalf("first window: got % x, want % x", got, want)
	}

	chunk1 := bytes.Repeat([]byte("A"), 8192)
	s.handleRPC(dataPacket(testRid, 0, chunk1), testAddr)
	want = append(append([]byte{'w'}, testRid[:]...),
		0x00, 0x20, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x28, 0x00, 0x00)
	if got := rpc.last(t); !bytes.Equal(got, want) {
		t.Fatalf("second window: got % x, want % x", got, want)
	}

	chunk2 := bytes.Repeat([]byte("B"), 2048)
	s.handleRPC(dataPacket(testRid, 8192, chunk2), testAddr)
	if got := rpc.last(t); !bytes.Equal(got, append([]byte{'R'}, testRid[:]...)) {
		t.Fatalf("completion: got % x", got)
	}

	got, err := os.ReadFile(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10240 || !bytes.Equal(got[:8192], chunk1) || !bytes.Equal(got[8192:], chunk2) {
		t.Fatalf("file contents wrong: %d bytes", len(got))
	}
	if s.writes.len() != 0 {
		t.Fatal("transfer slot not released")
	}
}

func TestWriteAtOffsetExtendsLength(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	s.handleRPC(frame('a', testRid, accessproto.OpWrite, hid, 100, 4), testAddr)
	s.handleRPC(dataPacket(testRid, 0, []byte("data")), testAddr)

	h := s.handles.get(hid)
	if h.length != 104 {
		t.Fatalf("length %d, want 104", h.length)
	}
	if h.seqPtr != 104 {
		t.Fatalf("seq pointer %d, want 104", h.seqPtr)
	}
}

func TestWriteZeroAmount(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 0, 0), testAddr)
	if got := checkResult(t, rpc.last(t)); len(got) != 0 {
		t.Fatalf("zero-amount write replied % x", got)
	}
	if s.writes.len() != 0 {
		t.Fatal("slot allocated for empty transfer")
	}
}

func TestWriteBadHandle(t *testing.T) {
	s, rpc := newTestServer(t)
	s.handleRPC(frame('A', testRid, accessproto.OpWrite, 99, 0, 100), testAddr)
	checkError(t, rpc.last(t), syscall.EBADF)
}

func TestWriteTableExhaustion(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	for i := 0; i < maxPendingWrites; i++ {
		rid := accessproto.Rid{byte(i), 0xAA, 0xBB}
		s.handleRPC(frame('A', rid, accessproto.OpWrite, hid, 0, 100), testAddr)
	}
	if s.writes.len() != maxPendingWrites {
		t.Fatalf("%d active transfers", s.writes.len())
	}
	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 0, 100), testAddr)
	checkError(t, rpc.last(t), syscall.ENOMEM)
}

func TestStrayDataPacketDropped(t *testing.T) {
	s, rpc := newTestServer(t)
	n := len(rpc.frames)
	s.handleRPC(dataPacket(testRid, 0, []byte("stray")), testAddr)
	if len(rpc.frames) != n {
		t.Fatal("stray data packet answered")
	}
}

func TestWriteReap(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 0, 10240), testAddr)
	if s.writes.len() != 1 {
		t.Fatal("transfer not registered")
	}

	if n := s.writes.reap(testTime.Add(29 * time.Second)); n != 0 {
		t.Fatalf("reaped %d transfers early", n)
	}
	if n := s.writes.reap(testTime.Add(30 * time.Second)); n != 1 {
		t.Fatalf("reaped %d transfers, want 1", n)
	}
	if s.writes.len() != 0 {
		t.Fatal("slot still held after reap")
	}

	// the freed slot is allocatable again
	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 0, 100), testAddr)
	if s.writes.len() != 1 {
		t.Fatal("slot not reusable after reap")
	}
}

func TestWriteInvariants(t *testing.T) {
	dir := t.TempDir()
	s, rpc := newTestServer(t, config.Share{Name: "Data", Path: dir})
	hid := openForWrite(t, s, rpc, dir)

	s.handleRPC(frame('A', testRid, accessproto.OpWrite, hid, 50, 10000), testAddr)
	s.handleRPC(dataPacket(testRid, 0, bytes.Repeat([]byte("x"), 8192)), testAddr)

	pw := s.writes.find(testRid)
	if pw == nil {
		t.Fatal("transfer missing")
	}
	if !(pw.start <= pw.current && pw.current <= pw.end) {
		t.Fatalf("positions out of order: %d %d %d", pw.start, pw.current, pw.end)
	}
	if pw.end-pw.start != 10000 {
		t.Fatalf("span %d, want 10000", pw.end-pw.start)
	}
}

package access

import (
	"net"
	"time"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
)

const (
	maxPendingWrites = 32

	// writeIdleTimeout reaps a transfer whose client has gone quiet.
	writeIdleTimeout = 30 * time.Second
)

// A pendingWrite tracks one client-to-server transfer driven by
// 'w' requests and 'd' data packets. Positions are absolute file
// offsets; the wire carries them relative to start.
type pendingWrite struct {
	active   bool
	handleID uint32
	start    uint32
	current  uint32
	end      uint32
	rid      accessproto.Rid
	client   *net.UDPAddr
	last     time.Time // time of the initiating request or latest 'd'
}

// A writeTable is the fixed pool of in-flight transfers, keyed by
// reply id.
type writeTable struct {
	slots [maxPendingWrites]pendingWrite
}

func (t *writeTable) find(rid accessproto.Rid) *pendingWrite {
	for i := range t.slots {
		if t.slots[i].active && t.slots[i].rid == rid {
			return &t.slots[i]
		}
	}
	return nil
}

func (t *writeTable) alloc() *pendingWrite {
	for i := range t.slots {
		if !t.slots[i].active {
			t.slots[i] = pendingWrite{active: true}
			return &t.slots[i]
		}
	}
	return nil
}

func (t *writeTable) release(pw *pendingWrite) {
	pw.active = false
}

// reap frees transfers idle longer than writeIdleTimeout and returns
// how many were dropped. No reply is sent; the peer has abandoned
// the transaction.
func (t *writeTable) reap(now time.Time) int {
	var n int
	for i := range t.slots {
		if t.slots[i].active && now.Sub(t.slots[i].last) >= writeIdleTimeout {
			t.slots[i].active = false
			n++
		}
	}
	return n
}

func (t *writeTable) len() int {
	var n int
	for i := range t.slots {
		if t.slots[i].active {
			n++
		}
	}
	return n
}

// startWrite begins a transfer for both WRITE framings: allocate a
// slot and ask the client for the first window.
func (s *Server) startWrite(rid accessproto.Rid, h *handle, offset, amount uint32, src *net.UDPAddr) {
	if amount == 0 {
		s.sendRPC(src, accessproto.ResultFrame(rid, nil))
		return
	}
	pw := s.writes.alloc()
	if pw == nil {
		s.replyErrno(src, rid, errNoMemory)
		return
	}
	pw.handleID = h.id
	pw.start = offset
	pw.current = offset
	pw.end = offset + amount
	pw.rid = rid
	pw.client = src
	pw.last = s.now()

	chunk := amount
	if chunk > accessproto.WriteChunk {
		chunk = accessproto.WriteChunk
	}
	s.debugf("write: handle=%d start=%d amount=%d", h.id, offset, amount)
	s.sendRPC(src, accessproto.WriteRequestFrame(rid, 0, chunk))
}

// handleData applies one 'd' packet. The payload lands at the offset
// the client declares; a packet for an unknown reply id is dropped
// without a response.
func (s *Server) handleData(p []byte, rid accessproto.Rid, src *net.UDPAddr) {
	if len(p) < 8 {
		return
	}
	relPos := accessproto.Uint32(p, 4)
	data := p[8:]

	pw := s.writes.find(rid)
	if pw == nil {
		s.debugf("data: no pending write for rid % x", rid[:])
		return
	}
	h := s.handles.get(pw.handleID)
	if h == nil || h.file == nil {
		s.writes.release(pw)
		return
	}

	absPos := pw.start + relPos
	n, err := h.file.WriteAt(data, int64(absPos))
	if err != nil {
		s.replyErrno(pw.client, pw.rid, err)
		s.writes.release(pw)
		return
	}
	pw.current = absPos + uint32(n)
	pw.last = s.now()
	h.seqPtr = pw.current
	if h.seqPtr > h.length {
		h.length = h.seqPtr
	}

	if pw.current < pw.end {
		relCurrent := pw.current - pw.start
		chunk := pw.end - pw.current
		if chunk > accessproto.WriteChunk {
			chunk = accessproto.WriteChunk
		}
		s.sendRPC(pw.client, accessproto.WriteRequestFrame(pw.rid, relCurrent, relCurrent+chunk))
		return
	}
	s.sendRPC(pw.client, accessproto.ResultFrame(pw.rid, nil))
	s.writes.release(pw)
}

package access

import (
	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/internal/netutil"
)

// broadcastShares announces every unprotected share on the discovery
// port. Protected shares are only ever revealed on the auth port.
func (s *Server) broadcastShares() {
	for i := range s.Config.Shares {
		share := &s.Config.Shares[i]
		if share.Protected() {
			continue
		}
		frame := accessproto.AnnounceFrame(accessproto.MsgShareAdd, share.Name, "")
		if _, err := s.bcast.WriteToUDP(frame, netutil.BroadcastAddr(accessproto.PortBroadcast)); err != nil {
			s.logf("broadcast: share %q: %v", share.Name, err)
			continue
		}
		s.Metrics.countBroadcast()
	}
}

func (s *Server) broadcastPrinters() {
	for i := range s.Config.Printers {
		p := &s.Config.Printers[i]
		frame := accessproto.AnnounceFrame(accessproto.MsgPrinterAdd, p.Name, p.Description)
		if _, err := s.bcast.WriteToUDP(frame, netutil.BroadcastAddr(accessproto.PortBroadcast)); err != nil {
			s.logf("broadcast: printer %q: %v", p.Name, err)
			continue
		}
		s.Metrics.countBroadcast()
	}
}

// broadcastDeadHandles drains the dead-handle log into one frame on
// the RPC port so clients drop cached references.
func (s *Server) broadcastDeadHandles() {
	ids := s.handles.drainDead()
	if len(ids) == 0 {
		return
	}
	frame := accessproto.DeadHandlesFrame(ids)
	if _, err := s.rpc.WriteToUDP(frame, netutil.BroadcastAddr(accessproto.PortRPC)); err != nil {
		s.logf("broadcast: dead handles: %v", err)
		return
	}
	s.debugf("broadcast: %d dead handles", len(ids))
	s.Metrics.countDeadHandles(len(ids))
}

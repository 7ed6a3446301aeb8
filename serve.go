package access

import (
	"context"
	"net"
	"os"
	"time"

	"aqwari.net/retry"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/internal/netutil"
)

// A packet is one datagram with its source, ferried from a reader
// goroutine to the serving loop.
type packet struct {
	data []byte
	src  *net.UDPAddr
}

// ListenAndServe binds the three protocol ports and serves until ctx
// is cancelled. Reader goroutines do no decoding and touch no shared
// state; the loop consuming their packets is the sole mutator of the
// handle table, auth cache and pending-write table.
func (s *Server) ListenAndServe(ctx context.Context) error {
	bind := s.Config.Server.BindIP

	bcast, err := netutil.ListenUDP(bind, accessproto.PortBroadcast)
	if err != nil {
		return err
	}
	defer bcast.Close()
	auth, err := netutil.ListenUDP(bind, accessproto.PortAuth)
	if err != nil {
		return err
	}
	defer auth.Close()
	rpc, err := netutil.ListenUDP(bind, accessproto.PortRPC)
	if err != nil {
		return err
	}
	defer rpc.Close()

	s.rpc, s.auth, s.bcast = rpc, auth, bcast

	for i := range s.Config.Shares {
		if _, err := os.Stat(s.Config.Shares[i].Path); err != nil {
			s.logf("share %q: path missing: %v", s.Config.Shares[i].Name, err)
		}
	}
	if s.Spooler != nil {
		if err := s.Spooler.Setup(); err != nil {
			s.logf("printer setup: %v", err)
		}
	}

	rpcC := make(chan packet, 32)
	authC := make(chan packet, 32)
	bcastC := make(chan packet, 32)
	go s.readPackets(ctx, rpc, rpcC)
	if s.Config.Server.AccessPlus {
		go s.readPackets(ctx, auth, authC)
	}
	go s.readPackets(ctx, bcast, bcastC)

	s.logf("serving %d shares, %d printers", len(s.Config.Shares), len(s.Config.Printers))
	s.broadcastShares()
	s.broadcastPrinters()
	s.lastBroadcast = s.now()

	return s.run(ctx, rpcC, authC, bcastC)
}

// readPackets ferries datagrams from one socket into ch, backing off
// on transient errors and giving up when the socket closes under it.
func (s *Server) readPackets(ctx context.Context, conn *net.UDPConn, ch chan<- packet) {
	backoff := retry.Exponential(time.Millisecond).Max(time.Second)
	try := 0
	buf := make([]byte, 4096)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				try++
				s.logf("read error: %v; retrying in %v", err, backoff(try))
				time.Sleep(backoff(try))
				continue
			}
			return
		}
		try = 0
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case ch <- packet{data: data, src: src}:
		case <-ctx.Done():
			return
		}
	}
}

// run is the event loop. Queued packets drain in RPC, auth,
// broadcast order before the loop sleeps again; the 1-second tick
// drives broadcasts, the pending-write reaper and printer polls.
func (s *Server) run(ctx context.Context, rpcC, authC, bcastC <-chan packet) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		s.drain(rpcC, authC, bcastC)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-rpcC:
			s.handleRPC(p.data, p.src)
		case p := <-authC:
			s.handleAuth(p.data, p.src)
		case p := <-bcastC:
			s.handleAnnouncement(p.data, p.src)
		case <-ticker.C:
			s.tick(s.now())
		}
	}
}

// drain processes every already-queued packet, holding the
// RPC-before-auth-before-broadcast precedence within a wakeup.
func (s *Server) drain(rpcC, authC, bcastC <-chan packet) {
	for {
		select {
		case p := <-rpcC:
			s.handleRPC(p.data, p.src)
			continue
		default:
		}
		select {
		case p := <-authC:
			s.handleAuth(p.data, p.src)
			continue
		default:
		}
		select {
		case p := <-bcastC:
			s.handleAnnouncement(p.data, p.src)
			continue
		default:
		}
		return
	}
}

// handleAnnouncement sees client Freeway announcements on the
// discovery port. The server only listens; nothing needs answering.
func (s *Server) handleAnnouncement(p []byte, src *net.UDPAddr) {
	if len(p) >= 4 {
		s.debugf("freeway: %08x from %v", accessproto.Uint32(p, 0), src)
	}
}

// tick runs the once-per-second housekeeping.
func (s *Server) tick(now time.Time) {
	if n := s.writes.reap(now); n > 0 {
		s.logf("reaped %d stalled write transfers", n)
	}

	interval := s.Config.Server.BroadcastInterval
	if interval > 0 && now.Sub(s.lastBroadcast) >= time.Duration(interval)*time.Second {
		s.broadcastShares()
		s.broadcastPrinters()
		s.broadcastDeadHandles()
		s.lastBroadcast = now
	}

	if s.Spooler != nil {
		s.Spooler.Poll(context.Background(), now)
	}

	s.Metrics.setOccupancy(s.handles.len(), s.authed.len(), s.writes.len())
}

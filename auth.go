package access

import (
	"net"
	"time"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
)

// passwordPIN derives the Access+ key from a share password: up to
// six characters, each folded to 0-36 and accumulated base 37.
// Digits map to 1-10, letters to 11-36 case-insensitively, anything
// else to 0. An empty password yields 0.
func passwordPIN(password string) uint32 {
	var pin uint32
	for i := 0; i < len(password) && i < 6; i++ {
		c := password[i]
		var enc uint32
		switch {
		case c >= '0' && c <= '9':
			enc = uint32(c-'0') + 1
		case c >= 'A' && c <= 'Z':
			enc = uint32(c-'A') + 11
		case c >= 'a' && c <= 'z':
			enc = uint32(c-'a') + 11
		}
		pin = pin*0x25 + enc
	}
	return pin
}

const (
	maxAuthEntries = 64
	authLifetime   = 600 * time.Second
)

type authEntry struct {
	ip     string
	share  string
	expiry time.Time
}

// An authCache remembers which client addresses have proved the PIN
// for which protected shares. Entries slide: any hit refreshes the
// expiry. Expired entries are left in place until overwritten.
type authCache struct {
	entries []authEntry
}

// add records or refreshes an authentication.
func (c *authCache) add(ip, share string, now time.Time) {
	for i := range c.entries {
		if c.entries[i].ip == ip && c.entries[i].share == share {
			c.entries[i].expiry = now.Add(authLifetime)
			return
		}
	}
	if len(c.entries) < maxAuthEntries {
		c.entries = append(c.entries, authEntry{ip: ip, share: share, expiry: now.Add(authLifetime)})
	}
}

// check reports whether ip holds a live authentication for share,
// refreshing the expiry on a hit.
func (c *authCache) check(ip, share string, now time.Time) bool {
	for i := range c.entries {
		if c.entries[i].ip == ip && c.entries[i].share == share {
			if !c.entries[i].expiry.After(now) {
				return false
			}
			c.entries[i].expiry = now.Add(authLifetime)
			return true
		}
	}
	return false
}

func (c *authCache) len() int { return len(c.entries) }

// handleAuth processes one datagram from the Access+ port. A share
// request carrying the PIN of a protected share records the client
// and reveals that share; other Freeway discovery messages are
// accepted silently.
func (s *Server) handleAuth(p []byte, src *net.UDPAddr) {
	if len(p) < 8 {
		return
	}
	msgType := accessproto.Uint32(p, 0)
	shareType := accessproto.Uint32(p, 4)
	s.debugf("auth: type=%08x share_type=%08x from %v", msgType, shareType, src)

	if msgType == accessproto.MsgDiscStartup && shareType == accessproto.MsgDiscStartup && len(p) >= 12 {
		key := accessproto.Uint32(p, 8)
		for i := range s.Config.Shares {
			share := &s.Config.Shares[i]
			if !share.Protected() || share.Password == "" {
				continue
			}
			if passwordPIN(share.Password) != key {
				continue
			}
			s.authed.add(src.IP.String(), share.Name, s.now())
			s.logf("auth: %v authenticated for share %q", src.IP, share.Name)
			frame := accessproto.RevealFrame(key, share.Name, byte(share.Attributes))
			if _, err := s.auth.WriteToUDP(frame, src); err != nil {
				s.logf("auth: send reveal: %v", err)
			}
		}
		return
	}

	if msgType>>16 == 0x0001 {
		// other Freeway disc messages; nothing to do
		return
	}
	s.logf("auth: unknown message type %08x from %v", msgType, src)
}

package access

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/andrewtimmins/riscos-access-server/accessproto"
	"github.com/andrewtimmins/riscos-access-server/config"
)

func TestPasswordPIN(t *testing.T) {
	// AB12: ((11*37+12)*37+2)*37+3
	if got := passwordPIN("AB12"); got != 573688 {
		t.Errorf("AB12: got %d, want 573688", got)
	}
	if passwordPIN("") != 0 {
		t.Error("empty password must derive 0")
	}
	if passwordPIN("abc") != passwordPIN("ABC") {
		t.Error("derivation must fold case")
	}
	if passwordPIN("abcdefgh") != passwordPIN("abcdef") {
		t.Error("only six characters count")
	}
	// punctuation encodes as zero, it does not abort the fold
	if passwordPIN("a!") != passwordPIN("a")*0x25 {
		t.Error("non-alphanumerics must encode as zero")
	}
}

func TestAuthCache(t *testing.T) {
	now := time.Unix(1000, 0)
	c := &authCache{}

	if c.check("10.0.0.1", "Secret", now) {
		t.Fatal("empty cache matched")
	}
	c.add("10.0.0.1", "Secret", now)
	if !c.check("10.0.0.1", "Secret", now.Add(599*time.Second)) {
		t.Fatal("live entry missed")
	}
	if c.check("10.0.0.2", "Secret", now) || c.check("10.0.0.1", "Other", now) {
		t.Fatal("keys must match on both fields")
	}
}

func TestAuthCacheExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := &authCache{}
	c.add("10.0.0.1", "Secret", now)

	if c.check("10.0.0.1", "Secret", now.Add(600*time.Second)) {
		t.Fatal("expired entry matched")
	}

	// a check inside the window slides the expiry
	c.add("10.0.0.1", "Secret", now)
	if !c.check("10.0.0.1", "Secret", now.Add(500*time.Second)) {
		t.Fatal("live entry missed")
	}
	if !c.check("10.0.0.1", "Secret", now.Add(1000*time.Second)) {
		t.Fatal("refreshed entry expired early")
	}
}

func TestAuthCacheCapacity(t *testing.T) {
	now := time.Unix(1000, 0)
	c := &authCache{}
	for i := 0; i < maxAuthEntries+10; i++ {
		c.add(net.IPv4(10, 0, byte(i>>8), byte(i)).String(), "Secret", now)
	}
	if c.len() != maxAuthEntries {
		t.Fatalf("cache grew to %d", c.len())
	}
	// a refresh of an existing key never consumes a slot
	c.add("10.0.0.1", "Secret", now)
	if c.len() != maxAuthEntries {
		t.Fatalf("refresh grew cache to %d", c.len())
	}
}

func TestAuthReveal(t *testing.T) {
	s, _ := newTestServer(t, config.Share{
		Name: "Secret", Path: "/srv/secret",
		Attributes: config.ShareProtected, Password: "AB12",
	})
	authConn := s.auth.(*captureConn)
	src := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: accessproto.PortAuth}

	pkt := accessproto.AppendUint32(nil, 0x00010001, 0x00010001, passwordPIN("AB12"))
	s.handleAuth(pkt, src)

	if !s.authed.check("10.0.0.7", "Secret", s.now()) {
		t.Fatal("client not recorded in auth cache")
	}
	if len(authConn.frames) != 1 {
		t.Fatalf("%d replies, want exactly one", len(authConn.frames))
	}
	reply := authConn.frames[0]
	if !bytes.Equal(reply[:4], []byte{0x04, 0x00, 0x01, 0x00}) {
		t.Fatalf("reply starts % x", reply[:4])
	}
	if !bytes.Contains(reply, []byte("Secret")) {
		t.Fatalf("share name missing from % x", reply)
	}
	if len(reply) > 256 {
		t.Fatalf("reveal reply %d bytes", len(reply))
	}
}

func TestAuthWrongKey(t *testing.T) {
	s, _ := newTestServer(t, config.Share{
		Name: "Secret", Path: "/srv/secret",
		Attributes: config.ShareProtected, Password: "AB12",
	})
	authConn := s.auth.(*captureConn)
	src := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: accessproto.PortAuth}

	pkt := accessproto.AppendUint32(nil, 0x00010001, 0x00010001, 12345)
	s.handleAuth(pkt, src)

	if len(authConn.frames) != 0 {
		t.Fatal("wrong key produced a reply")
	}
	if s.authed.len() != 0 {
		t.Fatal("wrong key recorded an authentication")
	}
}

func TestAuthOtherFreewayMinorsAccepted(t *testing.T) {
	s, _ := newTestServer(t)
	authConn := s.auth.(*captureConn)
	src := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7), Port: accessproto.PortAuth}

	// an announcement minor is accepted silently
	s.handleAuth(accessproto.AppendUint32(nil, 0x00010003, 0, 0), src)
	if len(authConn.frames) != 0 {
		t.Fatal("announcement minor answered")
	}

	// short packets are dropped
	s.handleAuth([]byte{1, 2, 3}, src)
	if len(authConn.frames) != 0 {
		t.Fatal("short packet answered")
	}
}

package access

import (
	"fmt"
	"net"
	"time"

	"github.com/andrewtimmins/riscos-access-server/config"
	"github.com/andrewtimmins/riscos-access-server/spool"
)

// Types implementing the Logger interface can receive diagnostic
// information during a Server's operation. The Logger interface is
// implemented by *log.Logger.
type Logger interface {
	Output(calldepth int, s string) error
}

// udpSender is the sending half of *net.UDPConn; tests substitute a
// capture.
type udpSender interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// A Server answers Access/ShareFS traffic for one configuration
// snapshot. Construct it with NewServer and run it with
// ListenAndServe; all mutable protocol state belongs to the serving
// loop.
type Server struct {
	Config *config.Config

	// If not nil, ErrorLog will be used to log unexpected errors
	// handling packets. TraceLog, if not nil, will receive detailed
	// per-packet tracing information.
	ErrorLog, TraceLog Logger

	// Metrics, if not nil, receives occupancy and traffic counts.
	Metrics *Metrics

	// Spooler, if not nil, is polled for printer jobs from the
	// serving loop.
	Spooler *spool.Spooler

	rpc   udpSender
	auth  udpSender
	bcast udpSender

	handles *handleTable
	authed  *authCache
	writes  writeTable

	now           func() time.Time
	lastBroadcast time.Time
}

// NewServer creates a Server for cfg. The configuration is treated
// as read-only from here on.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		Config:  cfg,
		handles: newHandleTable(),
		authed:  &authCache{},
		now:     time.Now,
	}
}

func (s *Server) debug() bool {
	return s.TraceLog != nil
}

func (s *Server) debugf(format string, v ...interface{}) {
	if s.TraceLog != nil {
		s.TraceLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func (s *Server) logf(format string, v ...interface{}) {
	if s.ErrorLog != nil {
		s.ErrorLog.Output(2, fmt.Sprintf(format, v...))
	}
}

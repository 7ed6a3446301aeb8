// Package spool watches printer spool directories for completed jobs
// and hands each one to a Runner. The server decides when to poll;
// this package decides what a poll does.
//
// A printer's directory holds two queues: clients deposit finished
// jobs in RemSpool, and polled jobs move to RemQueue until the runner
// has consumed them.
package spool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andrewtimmins/riscos-access-server/config"
)

const (
	spoolDir = "RemSpool"
	queueDir = "RemQueue"

	defaultPollInterval = 5 * time.Second
)

// A Runner turns one queued job file into an executed print command.
// A nil error means the job was consumed and its file can be removed.
type Runner interface {
	Run(ctx context.Context, p config.Printer, queuedPath string) error
}

// Logger receives diagnostics; *log.Logger implements it.
type Logger interface {
	Output(calldepth int, s string) error
}

// A Spooler owns the per-printer poll deadlines.
type Spooler struct {
	printers []config.Printer
	runner   Runner
	nextPoll []time.Time

	// ErrorLog, if not nil, receives runner and filesystem errors.
	ErrorLog Logger
}

// New creates a Spooler for the configured printers.
func New(printers []config.Printer, runner Runner) *Spooler {
	return &Spooler{
		printers: printers,
		runner:   runner,
		nextPoll: make([]time.Time, len(printers)),
	}
}

func (s *Spooler) logf(format string, v ...interface{}) {
	if s.ErrorLog != nil {
		s.ErrorLog.Output(2, fmt.Sprintf(format, v...))
	}
}

// Setup creates the queue directories and installs each printer's
// definition file as <path>/<name>.fc6.
func (s *Spooler) Setup() error {
	for _, p := range s.printers {
		if err := os.MkdirAll(filepath.Join(p.Path, spoolDir), 0775); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(p.Path, queueDir), 0775); err != nil {
			return err
		}
		dst := filepath.Join(p.Path, p.Name+".fc6")
		if err := copyFile(p.Definition, dst); err != nil {
			s.logf("printer %s: install definition: %v", p.Name, err)
		}
	}
	return nil
}

// Poll runs every printer whose deadline has elapsed and advances its
// deadline by the configured interval.
func (s *Spooler) Poll(ctx context.Context, now time.Time) {
	for i := range s.printers {
		if now.Before(s.nextPoll[i]) {
			continue
		}
		p := &s.printers[i]
		interval := time.Duration(p.PollInterval) * time.Second
		if interval <= 0 {
			interval = defaultPollInterval
		}
		s.nextPoll[i] = now.Add(interval)
		s.process(ctx, p)
	}
}

// process retries queued jobs left over from failed runs, then moves
// fresh spool files into the queue and runs each one.
func (s *Spooler) process(ctx context.Context, p *config.Printer) {
	queue := filepath.Join(p.Path, queueDir)
	for _, name := range listJobs(queue) {
		s.run(ctx, p, filepath.Join(queue, name))
	}

	spoolPath := filepath.Join(p.Path, spoolDir)
	for _, name := range listJobs(spoolPath) {
		queued := filepath.Join(queue, name)
		if err := os.Rename(filepath.Join(spoolPath, name), queued); err != nil {
			s.logf("printer %s: queue %s: %v", p.Name, name, err)
			continue
		}
		s.run(ctx, p, queued)
	}
}

// run invokes the runner and removes the job file only when the
// runner consumed it; a failed job stays queued for the next poll.
func (s *Spooler) run(ctx context.Context, p *config.Printer, queued string) {
	if err := s.runner.Run(ctx, *p, queued); err != nil {
		s.logf("printer %s: %s: %v", p.Name, filepath.Base(queued), err)
		return
	}
	if err := os.Remove(queued); err != nil {
		s.logf("printer %s: remove %s: %v", p.Name, filepath.Base(queued), err)
	}
}

func listJobs(dir string) []string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), ".") || e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

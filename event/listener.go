// Package event wires backtrace capture to process signals: hit the
// listener's signal and it prints a resolved trace of the goroutine
// servicing it. Meant for long-running processes where attaching a
// debugger is not an option.
package event

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"traceback/backtrace"
)

type Listener struct {
	session  *backtrace.Session
	out      io.Writer
	signals  []os.Signal
	incoming chan os.Signal
	done     chan struct{}
}

// CreateListener builds a listener for the given signals, SIGUSR1 when
// none are named. Output goes to out, stderr when nil.
func CreateListener(session *backtrace.Session, out io.Writer, signals ...os.Signal) *Listener {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGUSR1}
	}
	if out == nil {
		out = os.Stderr
	}
	return &Listener{
		session:  session,
		out:      out,
		signals:  signals,
		incoming: make(chan os.Signal, 8),
		done:     make(chan struct{}),
	}
}

// Run installs the handler and services signals until Stop.
func (l *Listener) Run() {
	signal.Notify(l.incoming, l.signals...)
	go func() {
		for {
			select {
			case sig := <-l.incoming:
				l.dump(sig)
			case <-l.done:
				return
			}
		}
	}()
}

func (l *Listener) Stop() {
	signal.Stop(l.incoming)
	close(l.done)
}

func (l *Listener) dump(sig os.Signal) {
	bt, err := backtrace.Capture()
	if err != nil {
		slog.Error("capture failed", "signal", sig, "error", err)
		return
	}
	// libraries may have been loaded since the last dump
	l.session.Refresh()
	fmt.Fprintf(l.out, "--- backtrace (signal %v, backend %s) ---\n", sig, bt.Backend())
	bt.Format(l.out, l.session)
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"traceback/backtrace"
	"traceback/cli"
	"traceback/config"
	"traceback/event"
)

var logLevel = new(slog.LevelVar)

// TraceFile is the JSON export format for -o.
type TraceFile struct {
	Version int          `json:"version"`
	Backend string       `json:"backend"`
	Frames  []TraceFrame `json:"frames"`
}

type TraceFrame struct {
	PC      string       `json:"pc"`
	Symbols []TraceEntry `json:"symbols,omitempty"`
}

type TraceEntry struct {
	Name    string `json:"name,omitempty"`
	Module  string `json:"module,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Inlined bool   `json:"inlined,omitempty"`
}

const traceFileVersion = 1

func main() {
	var (
		interactive bool
		listen      bool
		debug       bool
		depth       int
		backendName string
		outputFile  string
		addrFlag    string
		noColor     bool
	)
	flag.BoolVar(&interactive, "i", false, "Interactive symbolication shell")
	flag.BoolVar(&listen, "listen", false, "Print a trace on SIGUSR1 until interrupted")
	flag.BoolVar(&debug, "debug", false, "Debug logging")
	flag.IntVar(&depth, "depth", config.DefaultMaxDepth, "Maximum capture depth")
	flag.StringVar(&backendName, "backend", "auto", "Unwind backend: auto, runtime or fp")
	flag.StringVar(&outputFile, "o", "", "Write the captured trace as JSON to this file")
	flag.StringVar(&addrFlag, "addr", "", "Resolve addresses instead of capturing, e.g. [0x1234,0x5678]")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored shell output")
	flag.Parse()
	config.DisableColor = noColor

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(logHandler))
	if debug {
		logLevel.Set(slog.LevelDebug)
	}

	backend, err := parseBackend(backendName)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	session, err := backtrace.NewSession()
	if err != nil {
		fmt.Println("Create session error:", err)
		os.Exit(1)
	}

	if interactive {
		client := cli.CreateClient(session, &cli.UserConfig{MaxDepth: depth, Backend: backend})
		client.Run()
		return
	}

	if listen {
		listener := event.CreateListener(session, os.Stderr)
		listener.Run()
		fmt.Printf("pid %d: send SIGUSR1 for a trace, Ctrl+C to quit\n", os.Getpid())
		stopper := make(chan os.Signal, 1)
		signal.Notify(stopper, os.Interrupt, syscall.SIGTERM)
		<-stopper
		listener.Stop()
		return
	}

	if addrFlag != "" {
		addrs, err := parseAddresses(addrFlag)
		if err != nil {
			fmt.Println("Bad -addr:", err)
			os.Exit(1)
		}
		for _, addr := range addrs {
			syms := session.Resolve(addr)
			if len(syms) == 0 {
				fmt.Printf("0x%x: ???\n", addr)
				continue
			}
			for _, sym := range syms {
				fmt.Printf("0x%x: %s (%s:%d) %s\n", addr, sym.Demangled, sym.File, sym.Line, sym.Module)
			}
		}
		return
	}

	// default: capture our own stack through a few nested calls and
	// print it, as a smoke test of the whole pipeline
	bt, err := outer(backend, depth)
	if err != nil {
		fmt.Println("Capture failed:", err)
		os.Exit(1)
	}
	bt.Format(os.Stdout, session)

	if outputFile != "" {
		if err := saveTrace(outputFile, bt, session); err != nil {
			fmt.Println("Save failed:", err)
			os.Exit(1)
		}
		fmt.Printf("Trace saved to file: %s\n", outputFile)
	}
}

//go:noinline
func outer(backend, depth int) (*backtrace.Backtrace, error) {
	return middle(backend, depth)
}

//go:noinline
func middle(backend, depth int) (*backtrace.Backtrace, error) {
	return inner(backend, depth)
}

//go:noinline
func inner(backend, depth int) (*backtrace.Backtrace, error) {
	return backtrace.CaptureWith(backtrace.Options{MaxDepth: depth, Backend: backend})
}

func parseBackend(name string) (int, error) {
	switch name {
	case "auto", "":
		return config.BACKEND_AUTO, nil
	case "runtime":
		return config.BACKEND_RUNTIME, nil
	case "fp":
		return config.BACKEND_FP, nil
	}
	return 0, fmt.Errorf("unknown backend %q (want auto, runtime or fp)", name)
}

func parseAddresses(addrFlag string) ([]uint64, error) {
	trimmed := strings.Trim(addrFlag, "[]")
	if trimmed == "" {
		return []uint64{}, nil
	}
	var addrs []uint64
	for _, addrStr := range strings.Split(trimmed, ",") {
		addrStr = strings.TrimSpace(addrStr)
		addr, err := strconv.ParseUint(addrStr, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %v", addrStr, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func saveTrace(path string, bt *backtrace.Backtrace, session *backtrace.Session) error {
	out := TraceFile{Version: traceFileVersion, Backend: bt.Backend()}
	for _, rf := range bt.ResolveAll(session) {
		frame := TraceFrame{PC: fmt.Sprintf("0x%x", rf.Frame.PC)}
		for _, sym := range rf.Symbols {
			frame.Symbols = append(frame.Symbols, TraceEntry{
				Name:    sym.Demangled,
				Module:  sym.Module,
				File:    sym.File,
				Line:    sym.Line,
				Inlined: sym.Inlined,
			})
		}
		out.Frames = append(out.Frames, frame)
	}
	jsonData, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonData, 0644)
}

// Package cli is the interactive symbolication shell: capture traces,
// resolve addresses, inspect the module map and raw memory of the
// running process. Address arguments are expressions; module base
// addresses are in scope as identifiers (dots become underscores, so
// `libc_so_6 + 0x1234` is the address 0x1234 past libc's base).
package cli

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/casbin/govaluate"

	"traceback/backtrace"
	"traceback/config"
	"traceback/demangler"
	"traceback/utils"
)

type UserConfig struct {
	MaxDepth int
	Backend  int
}

type Client struct {
	Session *backtrace.Session
	Config  *UserConfig

	lastAddr uint64
}

func CreateClient(session *backtrace.Session, userConfig *UserConfig) *Client {
	if userConfig == nil {
		userConfig = &UserConfig{MaxDepth: config.DefaultMaxDepth, Backend: config.Preference}
	}
	return &Client{Session: session, Config: userConfig}
}

func paint(code, s string) string {
	if config.DisableColor {
		return s
	}
	return code + s + config.NC
}

func (c *Client) Run() {
	fmt.Println("Type `help` for commands. Ctrl-D or `exit` to leave.")
	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix("(traceback) "),
		prompt.OptionTitle("traceback"),
	)
	p.Run()
}

var commands = []prompt.Suggest{
	{Text: "trace", Description: "Capture and print a backtrace"},
	{Text: "resolve", Description: "resolve <expr> - symbolicate an address"},
	{Text: "maps", Description: "List loaded module images"},
	{Text: "dis", Description: "dis <expr> [n] - disassemble n instructions"},
	{Text: "x", Description: "x <expr> [len] - hex dump memory"},
	{Text: "demangle", Description: "demangle <name> - decode a mangled symbol"},
	{Text: "lib", Description: "lib <name> - locate a library on the search paths"},
	{Text: "depth", Description: "depth <n> - set capture depth"},
	{Text: "backend", Description: "backend <auto|runtime|fp> - pick unwinder"},
	{Text: "refresh", Description: "Re-read the loaded module set"},
	{Text: "help", Description: "Show commands"},
	{Text: "exit", Description: "Leave"},
}

func (c *Client) completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (c *Client) executor(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help", "h":
		for _, s := range commands {
			fmt.Printf("  %-10s %s\n", s.Text, s.Description)
		}
	case "trace", "bt":
		c.cmdTrace()
	case "resolve", "r":
		c.cmdResolve(args)
	case "maps", "m":
		c.cmdMaps()
	case "dis", "d":
		c.cmdDisasm(args)
	case "x":
		c.cmdHexDump(args)
	case "demangle":
		c.cmdDemangle(args)
	case "lib":
		c.cmdLib(args)
	case "depth":
		c.cmdDepth(args)
	case "backend":
		c.cmdBackend(args)
	case "refresh":
		c.Session.Refresh()
		fmt.Println("Module list marked stale.")
	case "exit", "quit", "q":
		os.Exit(0)
	default:
		fmt.Println(paint(config.RED, fmt.Sprintf("Unknown command %q. Try `help`.", cmd)))
	}
}

func (c *Client) cmdTrace() {
	bt, err := backtrace.CaptureWith(backtrace.Options{
		MaxDepth: c.Config.MaxDepth,
		Backend:  c.Config.Backend,
	})
	if err != nil {
		fmt.Println("Capture failed:", err)
		return
	}
	bt.Format(os.Stdout, c.Session)
}

func (c *Client) cmdResolve(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: resolve <expr>")
		return
	}
	addr, err := c.evalAddress(strings.Join(args, " "))
	if err != nil {
		fmt.Println("Bad address:", err)
		return
	}
	c.lastAddr = addr
	syms := c.Session.Resolve(addr)
	if len(syms) == 0 {
		fmt.Printf("0x%x: no symbol (address not in any known module)\n", addr)
		return
	}
	for _, sym := range syms {
		name := sym.Demangled
		if name == "" {
			name = "?"
		}
		inline := ""
		if sym.Inlined {
			inline = paint(config.YELLOW, " (inlined)")
		}
		loc := ""
		if sym.File != "" {
			loc = fmt.Sprintf(" at %s:%d", sym.File, sym.Line)
		}
		fmt.Printf("0x%x: %s+0x%x%s%s [%s]\n", addr, paint(config.GREEN, name), sym.Offset, inline, loc, paint(config.CYAN, sym.Module))
	}
}

func (c *Client) cmdMaps() {
	images := c.Session.Process().Modules()
	if len(images) == 0 {
		fmt.Println("No module images (no /proc on this platform?)")
		return
	}
	for _, img := range images {
		fmt.Printf("%012x-%012x %08x %s\n", img.Base, img.End, img.FileOff, paint(config.BLUE, img.Path))
	}
}

func (c *Client) cmdDisasm(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: dis <expr> [n]")
		return
	}
	count := 8
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[len(args)-1]); err == nil {
			count = v
			args = args[:len(args)-1]
		}
	}
	addr, err := c.evalAddress(strings.Join(args, " "))
	if err != nil {
		fmt.Println("Bad address:", err)
		return
	}
	c.lastAddr = addr
	buf := make([]byte, 16)
	for i := 0; i < count; i++ {
		n, err := utils.ReadSelfMemory(uintptr(addr), buf)
		if err != nil || n == 0 {
			fmt.Printf("0x%x: <unreadable>\n", addr)
			return
		}
		text, size, err := utils.DisASM(buf[:n])
		if err != nil {
			fmt.Printf("0x%x: <undecodable>\n", addr)
			return
		}
		fmt.Printf("0x%x: %s\n", addr, text)
		addr += uint64(size)
	}
}

func (c *Client) cmdHexDump(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: x <expr> [len]")
		return
	}
	length := 64
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[len(args)-1]); err == nil {
			length = v
			args = args[:len(args)-1]
		}
	}
	if length <= 0 {
		fmt.Println("Length must be a positive integer.")
		return
	}
	addr, err := c.evalAddress(strings.Join(args, " "))
	if err != nil {
		fmt.Println("Bad address:", err)
		return
	}
	c.lastAddr = addr
	data := make([]byte, length)
	n, err := utils.ReadSelfMemory(uintptr(addr), data)
	if err != nil {
		fmt.Println("Reading memory error:", err)
		return
	}
	fmt.Print(utils.HexDump(addr, data, n))
}

func (c *Client) cmdDemangle(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: demangle <name>")
		return
	}
	for _, name := range args {
		fmt.Println(demangler.Demangle(name))
	}
}

func (c *Client) cmdLib(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: lib <name>")
		return
	}
	path, err := c.Session.Process().FindLibrary(args[0])
	if err != nil {
		fmt.Println(paint(config.RED, err.Error()))
		return
	}
	fmt.Println(paint(config.GREEN, path))
}

func (c *Client) cmdDepth(args []string) {
	if len(args) != 1 {
		fmt.Printf("Capture depth is %d.\n", c.Config.MaxDepth)
		return
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v <= 0 {
		fmt.Println("Depth must be a positive integer.")
		return
	}
	c.Config.MaxDepth = v
}

func (c *Client) cmdBackend(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: backend <auto|runtime|fp>")
		return
	}
	switch args[0] {
	case "auto":
		c.Config.Backend = config.BACKEND_AUTO
	case "runtime":
		c.Config.Backend = config.BACKEND_RUNTIME
	case "fp":
		c.Config.Backend = config.BACKEND_FP
	default:
		fmt.Printf("Unknown backend %q.\n", args[0])
	}
}

var hexLiteral = regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b`)

// evalAddress evaluates an address expression. Hex literals are folded
// to decimal first since the evaluator only speaks base 10, and module
// bases plus `last` (the previous result) are bound as parameters.
func (c *Client) evalAddress(exprStr string) (uint64, error) {
	cooked := hexLiteral.ReplaceAllStringFunc(exprStr, func(m string) string {
		v, err := strconv.ParseUint(m[2:], 16, 64)
		if err != nil {
			return m
		}
		return strconv.FormatUint(v, 10)
	})
	expr, err := govaluate.NewEvaluableExpression(cooked)
	if err != nil {
		return 0, err
	}
	params := map[string]interface{}{
		"last": float64(c.lastAddr),
	}
	for _, img := range c.Session.Process().Modules() {
		ident := sanitizeIdent(img.Name)
		if _, exists := params[ident]; !exists {
			params[ident] = float64(img.Base)
		}
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return 0, err
	}
	f, ok := result.(float64)
	if !ok || f < 0 {
		return 0, fmt.Errorf("expression %q is not an address", exprStr)
	}
	return uint64(f), nil
}

func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

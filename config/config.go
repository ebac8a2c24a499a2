package config

// Unwind backend preference. AUTO uses the runtime virtual unwinder and
// only picks frame pointers when asked for explicitly.
const (
	BACKEND_AUTO    = 0
	BACKEND_RUNTIME = 1
	BACKEND_FP      = 2
)

var Preference = BACKEND_AUTO

// DefaultMaxDepth bounds a single unwind. A corrupted or cyclic stack
// truncates here instead of looping.
const DefaultMaxDepth = 128

// MaxStackScan bounds how far above the starting frame pointer the
// frame-pointer walker will follow the chain.
const MaxStackScan = 1 << 24

var RED = "\033[0;31m"
var GREEN = "\033[0;32m"
var YELLOW = "\033[0;33m"
var BLUE = "\033[0;34m"
var CYAN = "\033[0;36m"
var NC = "\033[0m"

var DisableColor = false

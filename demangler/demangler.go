// Package demangler turns compiler-mangled symbol names back into
// readable ones. Itanium C++ ("_Z..."), Rust v0 ("_R...") and legacy
// Rust hashes are tried in that order; anything unrecognized passes
// through unchanged, so Demangle never fails and is idempotent on its
// own output.
package demangler

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Demangle decodes name, or returns it unchanged if no known mangling
// scheme applies.
func Demangle(name string) string {
	return filter(name, demangle.NoClones)
}

// DemangleNoParams is Demangle without parameter and template lists,
// which is what trace output usually wants.
func DemangleNoParams(name string) string {
	return filter(name, demangle.NoClones, demangle.NoParams, demangle.NoTemplateParams)
}

func filter(name string, opts ...demangle.Option) string {
	// ELF symbol tables for dynamic symbols may carry version suffixes
	// like "@GLIBC_2.2.5" that the demangler does not understand.
	base, version, versioned := strings.Cut(name, "@")
	out := demangle.Filter(base, opts...)
	if out == base {
		return name
	}
	if versioned {
		return out + "@" + version
	}
	return out
}

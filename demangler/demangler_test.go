package demangler

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestDemangleItanium(t *testing.T) {
	assert.Equal(t, "foo::bar()", Demangle("_ZN3foo3barEv"))
}

func TestDemangleNoParams(t *testing.T) {
	assert.Equal(t, "foo::bar", DemangleNoParams("_ZN3foo3barEv"))
}

func TestDemanglePassthrough(t *testing.T) {
	for _, name := range []string{
		"main.main",
		"runtime.gopanic",
		"plain_c_function",
		"",
	} {
		assert.Equal(t, name, Demangle(name))
	}
}

func TestDemangleKeepsVersionSuffix(t *testing.T) {
	assert.Equal(t, "std::cout@GLIBCXX_3.4", Demangle("_ZSt4cout@GLIBCXX_3.4"))
}

func TestDemangleIdempotent(t *testing.T) {
	inputs := []string{
		"_ZN3foo3barEv",
		"main.main",
		"memcpy@GLIBC_2.14",
		"not a symbol at all",
	}
	for _, in := range inputs {
		once := Demangle(in)
		assert.Equal(t, once, Demangle(once), "input %q", in)
	}
}

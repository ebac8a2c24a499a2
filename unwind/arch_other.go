//go:build !amd64 && !arm64

package unwind

const retAdjust = 1

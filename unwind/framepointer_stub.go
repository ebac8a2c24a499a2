//go:build !linux || !(amd64 || arm64)

package unwind

func newFramePointerBackend() (Backend, error) {
	return nil, ErrUnsupportedPlatform
}

package controller

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/slices"
)

type Segment struct {
	baseAddr   uint64
	off        uint64
	endAddr    uint64
	libPath    string
	libName    string
	permission string
}

func (s *Segment) ParseLib() {
	parts := strings.Split(s.libPath, "/")
	s.libName = parts[len(parts)-1]
}

func (s *Segment) Executable() bool {
	return strings.Contains(s.permission, "x")
}

// Backed reports whether the segment maps a real file we can open, as
// opposed to [vdso], [stack] or anonymous mappings.
func (s *Segment) Backed() bool {
	return strings.HasPrefix(s.libPath, "/")
}

type ProcMaps struct {
	pid      int
	segments []*Segment
}

func GetProcMaps(pid int) (*ProcMaps, error) {
	procMaps := &ProcMaps{pid: pid}
	if err := procMaps.ReadMaps(); err != nil {
		return nil, err
	}
	return procMaps, nil
}

func (m *ProcMaps) ReadMaps() error {
	if m.pid == 0 {
		return errors.New("unexpected: pid is not ready")
	}
	filename := fmt.Sprintf("/proc/%d/maps", m.pid)
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error when opening file: %v", err)
	}
	return m.ParseMapsContent(content)
}

func (m *ProcMaps) ParseMapsContent(content []byte) error {
	var (
		segStart   uint64
		segEnd     uint64
		permission string
		segOffset  uint64
		device     string
		inode      uint64
		segPath    string
	)
	m.segments = []*Segment{}

	for _, line := range strings.Split(string(content), "\n") {
		reader := strings.NewReader(line)
		n, err := fmt.Fscanf(reader, "%x-%x %s %x %s %d %s", &segStart, &segEnd, &permission, &segOffset, &device, &inode, &segPath)
		if err == nil && n == 7 {
			if segPath == "" {
				segPath = fmt.Sprintf("UNNAMED_0x%x", segStart)
			}
			seg := &Segment{
				baseAddr:   segStart,
				off:        segOffset,
				endAddr:    segEnd,
				libPath:    segPath,
				permission: permission,
			}
			seg.ParseLib()
			m.segments = append(m.segments, seg)
		}
	}
	return nil
}

func (m *ProcMaps) Segments() []*Segment {
	return m.segments
}

func (m *ProcMaps) GetLibSearchPaths() []string {
	searchPaths := []string{}
	for _, seg := range m.segments {
		if strings.HasPrefix(seg.libPath, "/") && strings.HasSuffix(seg.libPath, ".so") {
			items := strings.Split(seg.libPath, "/")
			libSearchPath := strings.Join(items[:len(items)-1], "/")
			if !slices.Contains(searchPaths, libSearchPath) {
				searchPaths = append(searchPaths, libSearchPath)
			}
		}
	}
	return searchPaths
}

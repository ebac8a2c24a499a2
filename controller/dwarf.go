package controller

import (
	"debug/dwarf"
)

// lineFor finds the line-table row covering vaddr. Absent or corrupt
// line data degrades to "no answer", never to an error.
func (o *elfObject) lineFor(vaddr uint64) (string, int, bool) {
	if o.dw == nil {
		return "", 0, false
	}
	r := o.dw.Reader()
	cu, err := r.SeekPC(vaddr)
	if err != nil || cu == nil {
		return "", 0, false
	}
	lr, err := o.dw.LineReader(cu)
	if err != nil || lr == nil {
		return "", 0, false
	}
	var entry dwarf.LineEntry
	if err := lr.SeekPC(vaddr, &entry); err != nil {
		return "", 0, false
	}
	if entry.File == nil {
		return "", 0, false
	}
	return entry.File.Name, entry.Line, true
}

type inlineCall struct {
	name     string
	callFile string
	callLine int
}

// inlineChain walks the DIE tree of the compile unit covering vaddr and
// collects the chain of inlined calls containing it, innermost last.
// The first element is the physical subprogram. An empty result means
// no DWARF or no subprogram info for this address.
func (o *elfObject) inlineChain(vaddr uint64) []inlineCall {
	if o.dw == nil {
		return nil
	}
	r := o.dw.Reader()
	cu, err := r.SeekPC(vaddr)
	if err != nil || cu == nil {
		return nil
	}
	var files []*dwarf.LineFile
	if lr, err := o.dw.LineReader(cu); err == nil && lr != nil {
		files = lr.Files()
	}

	var chain []inlineCall
	depth := 0
	keepDepth := -1 // depth of the innermost matching DIE so far
	for {
		entry, err := r.Next()
		if err != nil || entry == nil {
			break
		}
		if entry.Tag == 0 {
			depth--
			if depth < 0 {
				break
			}
			continue
		}
		tag := entry.Tag
		if tag != dwarf.TagSubprogram && tag != dwarf.TagInlinedSubroutine {
			if entry.Children {
				depth++
			}
			continue
		}
		covers := o.entryCovers(entry, vaddr)
		if !covers {
			r.SkipChildren()
			continue
		}
		if keepDepth >= 0 && depth <= keepDepth {
			// left the matching branch, nothing deeper will match
			break
		}
		call := inlineCall{name: o.entryName(entry)}
		if tag == dwarf.TagInlinedSubroutine {
			if v, ok := entry.Val(dwarf.AttrCallFile).(int64); ok && v >= 0 && int(v) < len(files) && files[v] != nil {
				call.callFile = files[v].Name
			}
			if v, ok := entry.Val(dwarf.AttrCallLine).(int64); ok {
				call.callLine = int(v)
			}
		}
		chain = append(chain, call)
		keepDepth = depth
		if entry.Children {
			depth++
		} else {
			break
		}
	}
	return chain
}

func (o *elfObject) entryCovers(entry *dwarf.Entry, vaddr uint64) bool {
	ranges, err := o.dw.Ranges(entry)
	if err != nil {
		return false
	}
	for _, rng := range ranges {
		if vaddr >= rng[0] && vaddr < rng[1] {
			return true
		}
	}
	return false
}

// entryName resolves the subprogram name, chasing abstract origins and
// specifications, preferring the linkage (mangled) name when present so
// the demangler has something to work with.
func (o *elfObject) entryName(entry *dwarf.Entry) string {
	return o.entryNameDepth(entry, 0)
}

func (o *elfObject) entryNameDepth(entry *dwarf.Entry, depth int) string {
	if depth > 4 {
		return ""
	}
	if name, ok := entry.Val(dwarf.AttrLinkageName).(string); ok && name != "" {
		return name
	}
	if name, ok := entry.Val(dwarf.AttrName).(string); ok && name != "" {
		return name
	}
	for _, attr := range []dwarf.Attr{dwarf.AttrAbstractOrigin, dwarf.AttrSpecification} {
		if off, ok := entry.Val(attr).(dwarf.Offset); ok {
			r := o.dw.Reader()
			r.Seek(off)
			ref, err := r.Next()
			if err == nil && ref != nil {
				if name := o.entryNameDepth(ref, depth+1); name != "" {
					return name
				}
			}
		}
	}
	return ""
}

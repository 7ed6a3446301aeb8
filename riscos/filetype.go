package riscos

import (
	"fmt"
	"strconv"
	"strings"
)

// builtinTypes maps lowercased host extensions to filetypes when the
// configured map has no entry.
var builtinTypes = map[string]uint32{
	"txt":    0xFFF,
	"text":   0xFFF,
	"bas":    0xFFB,
	"c":      0xFFD,
	"h":      0xFFD,
	"s":      0xFFF,
	"o":      0xFFE,
	"pdf":    0xADF,
	"png":    0xB60,
	"jpg":    0xC85,
	"jpeg":   0xC85,
	"gif":    0x695,
	"zip":    0xA91,
	"html":   0xFAF,
	"htm":    0xFAF,
	"css":    0xF79,
	"js":     0xF81,
	"json":   0xF79,
	"xml":    0xF80,
	"csv":    0xDFE,
	"sprite": 0xFF9,
	"draw":   0xAFF,
	"ff9":    0xFF9,
	"aff":    0xAFF,
}

// FiletypeFromSuffix parses a ",xxx" tail: a comma followed by
// exactly three hex digits. The second return value is false if the
// name carries no such suffix.
func FiletypeFromSuffix(name string) (uint32, bool) {
	if len(name) < 4 {
		return 0, false
	}
	suffix := name[len(name)-4:]
	if suffix[0] != ',' {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.ToLower(suffix[1:]), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// FiletypeForName decides the filetype for a host name: the ,xxx
// suffix wins, then the configured extension map, then the builtin
// map, then FiletypeData.
func FiletypeForName(name string, mimemap map[string]uint32) uint32 {
	if t, ok := FiletypeFromSuffix(name); ok {
		return t
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return FiletypeData
	}
	ext := strings.ToLower(name[dot+1:])
	if t, ok := mimemap[ext]; ok {
		return t
	}
	if t, ok := builtinTypes[ext]; ok {
		return t
	}
	return FiletypeData
}

// StripTypeSuffix removes a ,xxx filetype suffix, if present.
func StripTypeSuffix(name string) string {
	if _, ok := FiletypeFromSuffix(name); ok {
		return name[:len(name)-4]
	}
	return name
}

// AppendTypeSuffix returns path carrying a ,xxx suffix for filetype.
// An existing suffix is rewritten, so the operation is idempotent.
func AppendTypeSuffix(path string, filetype uint32) string {
	return fmt.Sprintf("%s,%03x", StripTypeSuffix(path), filetype&0xFFF)
}

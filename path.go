package access

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/andrewtimmins/riscos-access-server/config"
	"github.com/andrewtimmins/riscos-access-server/riscos"
)

// maxHostPath bounds a resolved host path; longer results fail as if
// the object did not exist.
const maxHostPath = 512

// splitShare divides a RISC OS path into its leading share component
// and the remaining tail.
func splitShare(roPath string) (share, tail string) {
	if i := strings.IndexByte(roPath, '.'); i >= 0 {
		return roPath[:i], roPath[i+1:]
	}
	return roPath, ""
}

// safeTail rejects a path tail that would escape the share root: a
// leading host separator, or any slash-delimited component equal to
// "..". The check runs on the tail alone, before the share root is
// prepended.
func safeTail(tail string) bool {
	if strings.HasPrefix(tail, "/") || strings.HasPrefix(tail, "\\") {
		return false
	}
	for _, comp := range strings.FieldsFunc(tail, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if comp == ".." {
			return false
		}
	}
	return true
}

// resolvePath maps a RISC OS path onto the host filesystem: the
// leading component selects a share case-insensitively, and each
// remaining '.' becomes the host separator.
func resolvePath(shares []config.Share, roPath string) (string, *config.Share, error) {
	name, tail := splitShare(roPath)
	var share *config.Share
	for i := range shares {
		if strings.EqualFold(shares[i].Name, name) {
			share = &shares[i]
			break
		}
	}
	if share == nil {
		return "", nil, syscall.ENOENT
	}
	if !safeTail(tail) {
		return "", nil, syscall.ENOENT
	}
	host := share.Path
	if tail != "" {
		host += "/" + strings.ReplaceAll(tail, ".", "/")
	}
	if len(host) >= maxHostPath {
		return "", nil, syscall.ENOENT
	}
	return filepath.FromSlash(host), share, nil
}

// findWithTypeSuffix makes ,xxx suffixes transparent: when path does
// not exist, the parent directory is scanned for the first entry
// named path plus a type suffix of three lowercase hex digits.
func findWithTypeSuffix(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		return "", syscall.ENOENT
	}
	ents, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return "", syscall.ENOENT
	}
	for _, e := range ents {
		name := e.Name()
		if len(name) != len(base)+4 {
			continue
		}
		if !strings.EqualFold(name[:len(base)], base) || name[len(base)] != ',' {
			continue
		}
		if hex := name[len(base)+1:]; hex != strings.ToLower(hex) {
			continue
		}
		if _, ok := riscos.FiletypeFromSuffix(name); ok {
			return filepath.Join(filepath.Clean(dir), name), nil
		}
	}
	return "", syscall.ENOENT
}

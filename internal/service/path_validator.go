package service

import (
	"path/filepath"
	"strings"
)

// ValidateProjectDir checks the shape of a project workspace path before it
// is stored. The runner later creates this directory and executes shell
// steps inside it, so only clean absolute paths are accepted: no traversal
// segments, no home directory shorthand, no characters that are illegal in
// a path component.
func ValidateProjectDir(dir string) error {
	switch {
	case dir == "":
		return InvalidProjectDirError{Dir: dir, Reason: "path is empty"}
	case !filepath.IsAbs(dir):
		return InvalidProjectDirError{Dir: dir, Reason: "path must be absolute"}
	case strings.Contains(dir, ".."):
		return InvalidProjectDirError{Dir: dir, Reason: "path must not contain traversal segments"}
	case strings.Contains(dir, "~"):
		return InvalidProjectDirError{Dir: dir, Reason: "path must not use home directory shorthand"}
	case strings.ContainsAny(dir, `<>:"|?*`) || hasControlCharacters(dir):
		return InvalidProjectDirError{Dir: dir, Reason: "path contains illegal characters"}
	case filepath.Clean(dir) != dir:
		return InvalidProjectDirError{Dir: dir, Reason: "path is not in normalized form"}
	}
	return nil
}

func hasControlCharacters(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool { return r < 0x20 })
}

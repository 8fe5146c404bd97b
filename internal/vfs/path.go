// Package vfs implements a virtual, in-memory filesystem overlay for
// archive entries: a modifiable tree assembled from a flat, possibly
// duplicated or malformed list of entries handed over by an archive driver.
package vfs

import "strings"

// Separator is the canonical path separator used throughout the package.
// Archive entry names using '\' are rewritten to use Separator on load.
const Separator = "/"

// Root is the canonical path of the filesystem root directory.
const Root = ""

// IsRoot reports whether p is the canonical root path.
func IsRoot(p string) bool {
	return p == Root
}

// CutTrailingSeparators removes any trailing '/' from p, unless p is
// exactly "/", which is cut down to the canonical root path "".
func CutTrailingSeparators(p string) string {
	if p == Separator {
		return Root
	}

	return strings.TrimRight(p, Separator)
}

// Normalize rewrites p into canonical form: backslashes become slashes,
// runs of separators collapse, "." segments are dropped, and ".." segments
// pop the preceding segment unless there is none left to pop, in which case
// the ".." is preserved verbatim (mirroring the archive source's own
// normalizer, which never resolves above the topmost known segment).
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", Separator)

	leading := strings.HasPrefix(p, Separator)

	segments := strings.Split(p, Separator)
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if n := len(out); n > 0 && out[n-1] != ".." {
				out = out[:n-1]
			} else {
				out = append(out, seg)
			}
		default:
			out = append(out, seg)
		}
	}

	result := strings.Join(out, Separator)
	if leading {
		result = Separator + result
	}

	return result
}

// Canonical applies Normalize followed by CutTrailingSeparators, the
// transform applied to every incoming archive entry name before it is
// used as a table key.
func Canonical(name string) string {
	return CutTrailingSeparators(Normalize(name))
}

// Split divides p on its last separator into a (parent, base) pair.
// If p contains no separator, parent is the canonical root path and base
// is p unchanged. Split never returns a parent with a trailing separator.
func Split(p string) (parent, base string) {
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return Root, p
	}

	return p[:i], p[i+1:]
}

package smbprovider

import (
	"path"
	"strings"
)

// LogicalPath is a caller-facing path relative to the provider root.
// It always starts with "/", has no empty segments and no trailing slash
// except for the root itself. The zero value is the root.
type LogicalPath struct {
	p string
}

// ParseLogicalPath canonicalizes p into a LogicalPath. It never fails:
// runs of slashes and leading or trailing separators are normalized away.
func ParseLogicalPath(p string) LogicalPath {
	c := canonicalize(p)
	if c == "/" {
		return LogicalPath{}
	}
	return LogicalPath{p: c}
}

// String returns the canonical form.
func (lp LogicalPath) String() string {
	if lp.p == "" {
		return "/"
	}
	return lp.p
}

// IsRoot reports whether lp is "/".
func (lp LogicalPath) IsRoot() bool {
	return lp.p == ""
}

// Relative returns lp without its leading slash ("" for the root).
func (lp LogicalPath) Relative() string {
	return relativize(lp.String())
}

// Join appends name, which may itself contain slashes.
func (lp LogicalPath) Join(name string) LogicalPath {
	return ParseLogicalPath(lp.String() + "/" + name)
}

// Base returns the last segment, or "/" for the root.
func (lp LogicalPath) Base() string {
	return path.Base(lp.String())
}

// Dir returns the parent path. The parent of the root is the root.
func (lp LogicalPath) Dir() LogicalPath {
	return ParseLogicalPath(path.Dir(lp.String()))
}

// relativize strips a single leading slash.
func relativize(p string) string {
	return strings.TrimPrefix(p, "/")
}

// canonicalize returns "/" for "" and "/", otherwise "/" followed by the
// non-empty segments of p joined with "/".
func canonicalize(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return "/" + strings.Join(segments(p), "/")
}

func segments(p string) []string {
	parts := strings.Split(p, "/")
	elts := parts[:0]
	for _, e := range parts {
		if e != "" {
			elts = append(elts, e)
		}
	}
	return elts
}

// joinFull joins non-empty components with "/" and collapses duplicate
// separators. Unlike path.Join it does not interpret "." or "..".
func joinFull(elem ...string) string {
	var parts []string
	for _, e := range elem {
		if e != "" {
			parts = append(parts, e)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	joined := strings.Join(parts, "/")
	abs := strings.HasPrefix(joined, "/")
	joined = strings.Join(segments(joined), "/")
	if abs {
		return "/" + joined
	}
	return joined
}

// resolver maps logical paths into the share namespace.
type resolver struct {
	providerRoot string
	root         string // adapter root, leading slash stripped
	serverURI    string // \\host\share
}

func newResolver(host, share, providerRoot, root string) *resolver {
	return &resolver{
		providerRoot: canonicalize(providerRoot),
		root:         relativize(root),
		serverURI:    `\\` + host + `\` + share,
	}
}

// fullPath composes provider root, adapter root and p.
func (r *resolver) fullPath(p string) string {
	return joinFull(r.providerRoot, r.root, relativize(p))
}

// protocolPath returns the UNC form of a full path.
func (r *resolver) protocolPath(full string) string {
	return r.serverURI + toBackslash(full)
}

// sharePath returns the share-relative form of a full path expected by the
// SMB client: backslash separated, no leading separator. The share root is "".
func (r *resolver) sharePath(full string) string {
	return strings.TrimLeft(toBackslash(full), `\`)
}

// logical maps a full path below provider root + adapter root back to its
// canonical logical form.
func (r *resolver) logical(full string) string {
	base := canonicalize(joinFull(r.providerRoot, r.root))
	full = canonicalize(full)
	switch {
	case base == "/":
		return full
	case full == base:
		return "/"
	case strings.HasPrefix(full, base+"/"):
		return full[len(base):]
	}
	return full
}

func toBackslash(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// validatePath rejects NUL bytes and ".." segments so that no caller path
// can address anything outside the adapter root.
func validatePath(p string) error {
	if strings.Contains(p, "\x00") {
		return ErrInvalidPath
	}

	for _, seg := range strings.Split(strings.ReplaceAll(p, `\`, "/"), "/") {
		if seg == ".." {
			return ErrInvalidPath
		}
	}

	return nil
}

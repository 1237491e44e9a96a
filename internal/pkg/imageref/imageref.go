// Package imageref parses container image references and derives the
// runtime identity (id, arch, branch) flatpod commits under.
package imageref

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultServer is used when a reference names no dotted registry host.
const DefaultServer = "docker.io"

// DefaultTag is used when a reference names no tag.
const DefaultTag = "latest"

// Ref is a parsed `[server/]name[:tag]` image reference.
type Ref struct {
	Server string
	Name   string
	Tag    string
}

// Parse splits a textual image reference into server, name and tag.
//
// The server is the first slash-separated component iff it contains a dot;
// otherwise the server defaults to DefaultServer and the whole string is
// the name. The tag defaults to DefaultTag.
func Parse(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("imageref: empty reference")
	}

	rest := s
	server := DefaultServer
	if i := strings.Index(s, "/"); i >= 0 {
		candidate := s[:i]
		if strings.Contains(candidate, ".") {
			server = candidate
			rest = s[i+1:]
		}
	}

	name := rest
	tag := DefaultTag
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		name = rest[:i]
		tag = rest[i+1:]
	}
	if name == "" {
		return Ref{}, fmt.Errorf("imageref: %q has an empty image name", s)
	}

	return Ref{Server: server, Name: name, Tag: tag}, nil
}

// String formats a Ref back into its textual `[server/]name[:tag]` form.
func (r Ref) String() string {
	var b strings.Builder
	if r.Server != DefaultServer {
		b.WriteString(r.Server)
		b.WriteString("/")
	}
	b.WriteString(r.Name)
	if r.Tag != "" {
		b.WriteString(":")
		b.WriteString(r.Tag)
	}
	return b.String()
}

// Escape percent-encodes s outside the unreserved set and replaces every
// literal `%` with `_`, producing a filesystem-safe object-store ref
// token. Not required to be reversible.
func Escape(s string) string {
	encoded := url.PathEscape(s)
	// url.PathEscape leaves a handful of sub-delim characters ('$', '&',
	// '+', '=', ':', '@') untouched;
	// the unreserved set per RFC 3986 is only [A-Za-z0-9._~-], so escape
	// those manually before the final %->_ substitution.
	var b strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c == '%' || isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return strings.ReplaceAll(b.String(), "%", "_")
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// ArchMap translates OCI architecture names to flatpod runtime arch names.
var ArchMap = map[string]string{
	"386":      "i386",
	"amd64":    "x86_64",
	"arm":      "arm",
	"arm64":    "aarch64",
	"mips":     "mips",
	"mipsle":   "mipsel",
	"mips64":   "mips64",
	"mips64le": "mips64el",
}

// UndefinedArch is returned by ConvertArch for architectures absent from
// ArchMap.
const UndefinedArch = "undefined"

// ConvertArch maps an OCI architecture name to the runtime arch name,
// returning UndefinedArch for anything not in ArchMap.
func ConvertArch(ociArch string) string {
	if a, ok := ArchMap[ociArch]; ok {
		return a
	}
	return UndefinedArch
}

// RuntimeInfo is the id/arch/branch identity a conversion commits under.
type RuntimeInfo struct {
	ID     string
	Arch   string
	Branch string
}

// FullName is the `<id>/<arch>/<branch>` form used in `runtime/<fullName>`
// refs.
func (r RuntimeInfo) FullName() string {
	return fmt.Sprintf("%s/%s/%s", r.ID, r.Arch, r.Branch)
}

// DeriveID builds the reverse-DNS-style runtime id from a reference's
// server and name: the dot-separated components of the server are
// reversed, the image name is appended, and every `/` becomes `.`.
//
// The default registry (docker.io) is a special case: Docker Hub's
// reverse-notation id is the fixed "com.docker.io" rather than a literal
// reversal of "docker.io", and an unqualified name (no slash) is an
// official image, conventionally namespaced under "library/".
func DeriveID(r Ref) string {
	server, name := r.Server, r.Name
	var prefix string
	if server == DefaultServer {
		prefix = "com.docker.io"
		if !strings.Contains(name, "/") {
			name = "library/" + name
		}
	} else {
		parts := strings.Split(server, ".")
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		prefix = strings.Join(parts, ".")
	}
	id := prefix + "." + name
	return strings.ReplaceAll(id, "/", ".")
}

// DeriveBranch maps an image tag to the runtime branch, with "latest"
// special-cased to "master".
func DeriveBranch(tag string) string {
	if tag == "latest" {
		return "master"
	}
	return tag
}

// Derive computes id and branch from a reference; arch is left empty,
// to be filled in once the image config has been read.
func Derive(r Ref) RuntimeInfo {
	return RuntimeInfo{
		ID:     DeriveID(r),
		Branch: DeriveBranch(r.Tag),
	}
}

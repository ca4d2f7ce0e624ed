package archive

import (
	"net/url"
	"regexp"
	"strings"
)

// statusPathRegex matches /<handle>/status/<digits> exactly.
var statusPathRegex = regexp.MustCompile(`^/(\w+)/status/(\d+)$`)

// Reference identifies a post by the URL it was shared under.
type Reference struct {
	Host   string
	Handle string
	ID     string
}

// ParseReference extracts the post identifier from a URL of the form
// https://<host>/<handle>/status/<digits>. The host must be in allowedHosts
// (case-insensitive) unless allowedHosts is empty. ok is false for any other string.
func ParseReference(raw string, allowedHosts []string) (ref Reference, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Reference{}, false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Reference{}, false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || !hostAllowed(host, allowedHosts) {
		return Reference{}, false
	}

	m := statusPathRegex.FindStringSubmatch(u.Path)
	if m == nil {
		return Reference{}, false
	}

	return Reference{Host: host, Handle: m[1], ID: m[2]}, true
}

func hostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, h := range allowed {
		if strings.EqualFold(strings.TrimSpace(h), host) {
			return true
		}
	}
	return false
}

package assess

import (
	"net"
	"net/url"
	"strings"

	"github.com/kr1s57/linkshield/internal/entity"
)

// ParseURLTarget validates the input as an absolute http(s) URL and derives
// the domain (and IP, when the host is an IP literal). Anything else is an
// InvalidTargetError; validation happens before any adapter runs.
func ParseURLTarget(raw string) (entity.Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "empty URL"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "not a parseable URL"}
	}
	if !u.IsAbs() {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "URL must be absolute"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "scheme must be http or https"}
	}
	host := u.Hostname()
	if host == "" {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "URL has no host"}
	}

	t := entity.Target{
		Kind:   entity.TargetURL,
		Raw:    raw,
		URL:    raw,
		Domain: strings.ToLower(host),
	}
	if ip := net.ParseIP(host); ip != nil {
		t.IP = ip.String()
	}
	return t, nil
}

// ParseIPTarget validates the input as an IPv4 or IPv6 address.
func ParseIPTarget(raw string) (entity.Target, error) {
	raw = strings.TrimSpace(raw)
	ip := net.ParseIP(raw)
	if ip == nil {
		return entity.Target{}, &entity.InvalidTargetError{Input: raw, Reason: "not an IP address"}
	}
	return entity.Target{
		Kind: entity.TargetIP,
		Raw:  raw,
		IP:   ip.String(),
	}, nil
}

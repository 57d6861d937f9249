package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks URLs before the application fetches from them.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private, loopback and link-local addresses are permitted
	AllowPrivateIPs bool
	// RequireHTTPS rejects plain http URLs
	RequireHTTPS bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewImageURLValidator validates image URLs taken from API responses.
func NewImageURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		RequireHTTPS:    true,
		MaxLength:       2048,
	}
}

// NewPermissiveURLValidator accepts local and plain http URLs, for a local
// fake API and tests.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// Validate parses raw and applies the validator's rules.
func (v *URLValidator) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(raw) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(raw, "<>\"'` ") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if v.RequireHTTPS {
			return nil, fmt.Errorf("URL must use https")
		}
	default:
		return nil, fmt.Errorf("URL must use http or https protocol")
	}

	if u.Host == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}
	if u.User != nil {
		return nil, fmt.Errorf("URL must not carry credentials")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return nil, err
	}
	if strings.Contains(u.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return u, nil
}

// NormalizeBaseURL validates an API endpoint. A missing scheme defaults to
// https and the path always ends in a slash.
func (v *URLValidator) NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := v.Validate(raw)
	if err != nil {
		return "", err
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("base URL must not carry a query or fragment")
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

func (v *URLValidator) checkHost(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return fmt.Errorf("invalid host address %s", hostname)
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	return hostname == "localhost" ||
		strings.HasSuffix(hostname, ".localhost") ||
		hostname == "127.0.0.1" ||
		hostname == "::1"
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

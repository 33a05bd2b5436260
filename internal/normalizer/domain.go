package normalizer

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"tweetnorm/internal/logger"
)

// ErrUnparseableURL is returned by Split when no host can be read from a URL.
var ErrUnparseableURL = errors.New("unparseable url")

// DomainExtractor splits URLs into registrable domain and public suffix, using
// the ICANN section of the Public Suffix List only: for
// "https://news.bbc.co.uk/x" it yields "bbc" and "co.uk", and private entries
// such as blogspot.com are treated as ordinary domains.
type DomainExtractor struct {
	logger *logger.Logger
}

// NewDomainExtractor creates an extractor that logs degraded URLs to log.
func NewDomainExtractor(log *logger.Logger) *DomainExtractor {
	if log == nil {
		log = logger.Nop()
	}

	return &DomainExtractor{logger: log}
}

// Extract returns sequences aligned with urls. A nil urls yields (nil, nil).
// Unparseable URLs contribute empty strings and a warning.
func (d *DomainExtractor) Extract(urls []string) ([]string, []string) {
	if urls == nil {
		return nil, nil
	}

	domains := make([]string, len(urls))
	suffixes := make([]string, len(urls))

	for i, u := range urls {
		domain, suffix, err := Split(u)
		if err != nil {
			d.logger.Warn("domain extraction degraded to empty components", "url", u, "error", err)
		}

		domains[i], suffixes[i] = domain, suffix
	}

	return domains, suffixes
}

// Split returns the registrable domain label and the public suffix of rawURL.
// Hosts without a known suffix return their last label as the domain and an
// empty suffix; IP addresses return the address and an empty suffix.
func Split(rawURL string) (string, string, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return "", "", err
	}

	if net.ParseIP(host) != nil {
		return host, "", nil
	}

	suffix := icannSuffix(host)

	rest := host
	if suffix != "" {
		if host == suffix {
			return "", suffix, nil
		}

		rest = strings.TrimSuffix(host, "."+suffix)
	}

	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		rest = rest[i+1:]
	}

	return rest, suffix, nil
}

func hostOf(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnparseableURL)
	}

	if !strings.Contains(s, "://") {
		s = "//" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnparseableURL, err)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", fmt.Errorf("%w: no host in %q", ErrUnparseableURL, rawURL)
	}

	return host, nil
}

// icannSuffix returns the ICANN public suffix of host, or "" when the list has
// no rule for its top-level label.
func icannSuffix(host string) string {
	suffix, icann := publicsuffix.PublicSuffix(host)

	// A private rule matched: step down to the ICANN rule underneath it.
	for !icann && strings.Contains(suffix, ".") {
		suffix = suffix[strings.IndexByte(suffix, '.')+1:]
		suffix, icann = publicsuffix.PublicSuffix(suffix)
	}

	if !icann {
		return ""
	}

	return suffix
}

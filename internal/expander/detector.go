// Package expander detects short links and resolves them to their destination.
package expander

import (
	"net/url"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/net/publicsuffix"
)

// ShortenerDomains are the link-shortening services recognized by default.
var ShortenerDomains = []string{
	"bit.ly", "bit.do", "buff.ly", "cutt.ly", "dlvr.it", "fb.me", "flip.it",
	"goo.gl", "ht.ly", "ift.tt", "is.gd", "j.mp", "lnkd.in", "ow.ly",
	"rb.gy", "rebrand.ly", "shar.es", "t.co", "t.ly", "tiny.cc", "tinyurl.com",
	"trib.al", "wp.me", "youtu.be", "amzn.to", "reut.rs", "nyti.ms", "wapo.st",
	"bbc.in", "cnn.it", "econ.st", "apne.ws", "on.ft.com", "hill.cm", "politi.co",
	"bloom.bg", "gu.com", "po.st", "su.pr", "qr.ae", "mol.im", "ln.is",
	"dld.bz", "tr.im", "x.co", "bitly.com", "s.id", "shorturl.at",
}

// Detector tells short links apart from regular URLs. A URL is short when its
// host, or the registrable domain of its host, is a known shortener, or when
// the URL contains one of the extra patterns.
type Detector struct {
	domains  map[string]struct{}
	patterns *ahocorasick.Matcher
}

// NewDetector creates a detector for ShortenerDomains plus extraDomains, with
// extraPatterns matched as case-insensitive substrings of the whole URL.
func NewDetector(extraDomains, extraPatterns []string) *Detector {
	domains := make(map[string]struct{}, len(ShortenerDomains)+len(extraDomains))
	for _, d := range ShortenerDomains {
		domains[d] = struct{}{}
	}

	for _, d := range extraDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains[d] = struct{}{}
		}
	}

	d := &Detector{domains: domains}

	var patterns []string
	for _, p := range extraPatterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}

	if len(patterns) > 0 {
		d.patterns = ahocorasick.NewStringMatcher(patterns)
	}

	return d
}

// IsShort reports whether rawURL should be expanded.
func (d *Detector) IsShort(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	if d.patterns != nil && d.patterns.Contains([]byte(lower)) {
		return true
	}

	u, err := url.Parse(lower)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}

	if _, ok := d.domains[host]; ok {
		return true
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || registrable == host {
		return false
	}

	_, ok := d.domains[registrable]

	return ok
}

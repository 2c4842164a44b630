// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package classifier

import (
	"net/url"
	"regexp"
	"strings"
)

// predicate tests normalized (trimmed, lowercased) content.
type predicate interface {
	match(content string) bool
	String() string
}

// keyword matches when the content contains the keyword anywhere.
type keyword string

func (k keyword) match(content string) bool { return strings.Contains(content, string(k)) }
func (k keyword) String() string            { return "keyword:" + string(k) }

// pattern matches a case-insensitive regular expression.
type pattern struct {
	re *regexp.Regexp
}

func (p pattern) match(content string) bool { return p.re.MatchString(content) }
func (p pattern) String() string            { return "pattern:" + p.re.String() }

// domain matches when any URL in the content is hosted on the domain or
// one of its subdomains.
type domain string

func (d domain) match(content string) bool {
	for _, host := range hosts(content) {
		if host == string(d) || strings.HasSuffix(host, "."+string(d)) {
			return true
		}
	}
	return false
}

func (d domain) String() string { return "domain:" + string(d) }

// trimURLToken strips punctuation commonly wrapped around links in prose.
const trimURLToken = `"'()<>[]{},;!`

// hosts extracts the host names of URL-like tokens in content, without a
// leading "www.". Tokens without a scheme are accepted when they contain a
// dot, so "youtu.be/abc" counts as a link.
func hosts(content string) []string {
	var out []string
	for _, token := range strings.Fields(content) {
		token = strings.Trim(token, trimURLToken)
		token = strings.TrimRight(token, ".:")
		if !strings.Contains(token, ".") {
			continue
		}
		if !strings.Contains(token, "://") {
			token = "https://" + token
		}
		u, err := url.Parse(token)
		if err != nil || u.Hostname() == "" {
			continue
		}
		out = append(out, strings.TrimPrefix(u.Hostname(), "www."))
	}
	return out
}

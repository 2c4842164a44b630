// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package classifier maps free-form text to a category tag using ordered
// pattern rules. Rules are evaluated in configured order and the first rule
// with any matching predicate wins; nothing matching yields the fallback
// tag. Classification never fails.
package classifier

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultFallback is the tag returned when no rule matches.
const DefaultFallback = "other"

const previewRunes = 100

//go:embed rules.yaml
var defaultRules []byte

// ruleFile is the YAML layout of a rules document.
type ruleFile struct {
	Fallback string       `yaml:"fallback"`
	Rules    []ruleConfig `yaml:"rules"`
}

type ruleConfig struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
	Keywords []string `yaml:"keywords"`
	Domains  []string `yaml:"domains"`
}

// rule is one category with the predicates that select it.
type rule struct {
	category   string
	predicates []predicate
}

// Classifier holds compiled rules. It has no mutable state and is safe for
// concurrent use.
type Classifier struct {
	rules    []rule
	fallback string
}

// Match describes why content was assigned its category. Predicate is
// empty when the fallback was used.
type Match struct {
	Category  string
	Predicate string
}

// Load builds a Classifier from a YAML rules document. Invalid regular
// expressions are logged and skipped so a single bad pattern does not
// disable the rest of its rule.
func Load(r io.Reader) (*Classifier, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	c := &Classifier{fallback: strings.ToLower(strings.TrimSpace(file.Fallback))}
	if c.fallback == "" {
		c.fallback = DefaultFallback
	}

	for i, rc := range file.Rules {
		category := strings.ToLower(strings.TrimSpace(rc.Category))
		if category == "" {
			return nil, fmt.Errorf("rule %d: category is required", i)
		}

		r := rule{category: category}
		for _, p := range rc.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				slog.Warn("skipping invalid classifier pattern",
					"category", category,
					"pattern", p,
					"error", err,
				)
				continue
			}
			r.predicates = append(r.predicates, pattern{re: re})
		}
		for _, k := range rc.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				r.predicates = append(r.predicates, keyword(k))
			}
		}
		for _, d := range rc.Domains {
			d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
			if d != "" {
				r.predicates = append(r.predicates, domain(d))
			}
		}
		c.rules = append(c.rules, r)
	}

	return c, nil
}

// LoadFile is Load for rules kept in memory, such as a file read at startup.
func LoadFile(data []byte) (*Classifier, error) {
	return Load(bytes.NewReader(data))
}

// Default returns the classifier built from the embedded rules.
var Default = sync.OnceValue(func() *Classifier {
	c, err := LoadFile(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded rules are invalid: %v", err))
	}
	return c
})

// Classify assigns content a category using the embedded rules.
func Classify(content string) string {
	return Default().Classify(content)
}

// Classify returns the category of the first matching rule, or the
// fallback tag. The full content is always scanned.
func (c *Classifier) Classify(content string) string {
	return c.Explain(content).Category
}

// Explain classifies content and reports which predicate decided it.
// A panic during evaluation is recovered and reported as the fallback.
func (c *Classifier) Explain(content string) (m Match) {
	m = Match{Category: c.fallback}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("classifier recovered from panic",
				"error", rec,
				"content_preview", preview(content),
			)
			m = Match{Category: c.fallback}
		}
	}()

	normalized := strings.ToLower(strings.TrimSpace(content))
	if normalized == "" {
		return m
	}

	for _, r := range c.rules {
		for _, p := range r.predicates {
			if p.match(normalized) {
				return Match{Category: r.category, Predicate: p.String()}
			}
		}
	}
	return m
}

// Categories lists rule categories in evaluation order followed by the
// fallback tag.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.category)
	}
	return append(out, c.fallback)
}

// Fallback returns the tag used when no rule matches.
func (c *Classifier) Fallback() string {
	return c.fallback
}

// preview shortens s to previewRunes runes for log output.
func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}

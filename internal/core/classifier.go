package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Classifier maps an address string to a Category.
// It holds only compiled, read-only rule data and is safe for concurrent use.
type Classifier struct {
	rules    RuleSet
	replacer *strings.Replacer
	district *regexp.Regexp
}

// NewClassifier validates rs and compiles it into a Classifier.
func NewClassifier(rs RuleSet) (*Classifier, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	pattern := districtPattern(rs)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile district pattern %q: %w", pattern, err)
	}

	return &Classifier{
		rules:    rs,
		replacer: buildReplacer(rs.Normalize),
		district: re,
	}, nil
}

// MustClassifier is NewClassifier for rule sets known to be valid.
func MustClassifier(rs RuleSet) *Classifier {
	c, err := NewClassifier(rs)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules returns the rule set the classifier was built from.
func (c *Classifier) Rules() RuleSet {
	return c.rules
}

// Classify returns the category for one address value.
// An empty string is treated as an absent address.
func (c *Classifier) Classify(address string) Category {
	if address == "" {
		return NoDistrict
	}

	text := c.Normalize(address)

	if c.isPostalException(text) {
		return PostOffice
	}
	if c.hasDistrict(text) {
		return HasDistrict
	}
	return NoDistrict
}

// Normalize applies the character substitutions and trims whitespace.
func (c *Classifier) Normalize(address string) string {
	return strings.TrimSpace(c.replacer.Replace(address))
}

func (c *Classifier) isPostalException(text string) bool {
	contains := func(marker string) bool { return strings.Contains(text, marker) }
	return lo.ContainsBy(c.rules.Islands, contains) || lo.ContainsBy(c.rules.PostalMarkers, contains)
}

func (c *Classifier) hasDistrict(text string) bool {
	if c.rules.SearchWindow.Mode == WindowFirstN {
		if runes := []rune(text); len(runes) > c.rules.SearchWindow.N {
			text = string(runes[:c.rules.SearchWindow.N])
		}
	}
	return c.district.MatchString(text)
}

// districtPattern mirrors the historic `.+[縣市].+[鄉鎮市區]` family of
// patterns. The leading `.+` means a marker in first position never counts.
func districtPattern(rs RuleSet) string {
	county := charClass(rs.CountyMarkers)
	district := charClass(rs.DistrictMarkers)

	switch rs.DistrictRule {
	case RuleCountyThenDistrict:
		return ".+" + county + ".+" + district
	case RuleCountyOrDistrict:
		return ".+" + charClass(append(append([]string{}, rs.CountyMarkers...), rs.DistrictMarkers...))
	default:
		return ".+" + district
	}
}

// charClass builds a regexp character class from single-rune markers.
func charClass(markers []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, m := range lo.Uniq(markers) {
		for _, r := range m {
			switch r {
			case '\\', ']', '[', '^', '-':
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(']')
	return b.String()
}

// buildReplacer orders pairs by key so the result does not depend on map order.
func buildReplacer(pairs map[string]string) *strings.Replacer {
	keys := lo.Keys(pairs)
	sort.Strings(keys)

	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, pairs[k])
	}
	return strings.NewReplacer(args...)
}

package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterConfig selects rules by ID.
type FilterConfig struct {
	Include []string // regexes; empty includes everything
	Exclude []string // regexes applied after Include
}

// SplitList splits a comma-separated flag value, trimming blanks.
func SplitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Filter keeps the rules whose ID matches an include regex and no exclude
// regex.
func Filter(rules []*Rule, config FilterConfig) ([]*Rule, error) {
	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		if len(include) > 0 && !matchesAny(r.ID, include) {
			continue
		}
		if matchesAny(r.ID, exclude) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchesAny(id string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

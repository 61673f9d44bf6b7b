package rule

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

// ValidateRule checks required fields, flags and pattern syntax. Syntax is
// checked with a PCRE-compatible parser so validation works without the
// native engine; the engine may still reject constructs it does not
// support (backreferences, lookaround).
func ValidateRule(r *Rule) error {
	if r == nil {
		return errors.New("rule is nil")
	}
	if r.ID == "" {
		return errors.New("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule %s: name is required", r.ID)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule %s: pattern is required", r.ID)
	}
	if _, err := hyperscan.ParseFlags(r.Flags); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if _, err := regexp2.Compile(r.Pattern, regexp2.None); err != nil {
		return fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
	}
	if r.StructuralID != "" && r.StructuralID != r.ComputeStructuralID() {
		return fmt.Errorf("rule %s has inconsistent StructuralID", r.ID)
	}
	return nil
}

// ValidateRules validates every rule and rejects duplicate IDs.
func ValidateRules(rules []*Rule) error {
	seen := make(map[string]bool, len(rules))
	var errs []error
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate rule ID: %s", r.ID))
		}
		seen[r.ID] = true
	}
	return errors.Join(errs...)
}

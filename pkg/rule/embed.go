package rule

import "embed"

// builtinRulesFS holds the sample rule set used by the CLI when no rules
// are given.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS

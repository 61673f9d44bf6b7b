package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/rule"
)

var (
	rulesPath    string
	rulesInclude string
	rulesExclude string
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage detection rules",
	Long:  "Commands for listing, validating and checking YAML rule sets",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate rules and run their examples",
	Long: `Validate every rule, then scan each rule's examples and negative examples.
Examples must produce a match for their rule; negative examples must not.`,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to rules file or directory (default: builtin rules)")
	rulesCmd.PersistentFlags().StringVar(&rulesInclude, "rules-include", "", "Include rules whose ID matches these regexes (comma-separated)")
	rulesCmd.PersistentFlags().StringVar(&rulesExclude, "rules-exclude", "", "Exclude rules whose ID matches these regexes (comma-separated)")
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(rulesPath, rulesInclude, rulesExclude)
	if err != nil {
		return err
	}
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rules)
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFLAGS\tKEYWORDS")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Flags, strings.Join(r.Keywords, ","))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(rulesPath, rulesInclude, rulesExclude)
	if err != nil {
		return err
	}
	if err := rule.ValidateRules(rules); err != nil {
		return err
	}
	m, err := matcher.New(rules)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	var failures []error
	for _, r := range rules {
		for _, ex := range r.Examples {
			ok, err := matchesRule(m, r.ID, ex)
			if err != nil {
				return err
			}
			if !ok {
				failures = append(failures, fmt.Errorf("%s: example not matched: %q", r.ID, ex))
			}
		}
		for _, ex := range r.NegativeExamples {
			ok, err := matchesRule(m, r.ID, ex)
			if err != nil {
				return err
			}
			if ok {
				failures = append(failures, fmt.Errorf("%s: negative example matched: %q", r.ID, ex))
			}
		}
	}
	out := cmd.OutOrStdout()
	for _, f := range failures {
		fmt.Fprintln(out, f)
	}
	stats := m.Stats()
	fmt.Fprintf(out, "%d rules checked (%d native, %d fallback), %d failures\n",
		len(rules), stats.EngineRules, stats.FallbackRules, len(failures))
	return errors.Join(failures...)
}

func matchesRule(m *matcher.Matcher, id, text string) (bool, error) {
	results, err := m.Match([]byte(text))
	if err != nil {
		return false, err
	}
	for _, res := range results {
		if res.RuleID == id {
			return true, nil
		}
	}
	return false, nil
}

// loadRules reads the builtin rules, a YAML file or a directory of YAML
// files, then applies the include and exclude filters.
func loadRules(path, include, exclude string) ([]*rule.Rule, error) {
	var rules []*rule.Rule
	var err error
	switch info, statErr := os.Stat(path); {
	case path == "":
		rules, err = rule.LoadBuiltinRules()
	case statErr != nil:
		return nil, statErr
	case info.IsDir():
		rules, err = rule.NewLoaderWithFS(os.DirFS(path)).LoadDir(".")
	default:
		rules, err = rule.NewLoaderWithFS(os.DirFS(filepath.Dir(path))).LoadRuleFile(filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	if include != "" || exclude != "" {
		rules, err = rule.Filter(rules, rule.FilterConfig{
			Include: rule.SplitList(include),
			Exclude: rule.SplitList(exclude),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}
	return rules, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/hyperscan/pkg/enum"
	"github.com/praetorian-inc/hyperscan/pkg/matcher"
	"github.com/praetorian-inc/hyperscan/pkg/sarif"
)

var (
	scanRulesPath     string
	scanRulesInclude  string
	scanRulesExclude  string
	scanFormat        string
	scanContextLines  int
	scanIncludeHidden bool
	scanNoIgnore      bool
	scanMaxFileSize   int64
	scanWorkers       int
	scanDedupe        string
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] [PATH...]",
	Short: "Scan files with a YAML rule set",
	Long: `Scan files or directories with detection rules. Rules run on the native
engine where possible; capture groups are extracted for every match.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to rules file or directory (default: builtin rules)")
	scanCmd.Flags().StringVar(&scanRulesInclude, "rules-include", "", "Include rules whose ID matches these regexes (comma-separated)")
	scanCmd.Flags().StringVar(&scanRulesExclude, "rules-exclude", "", "Exclude rules whose ID matches these regexes (comma-separated)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().IntVar(&scanContextLines, "context-lines", 0, "Lines of context before/after matches")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanNoIgnore, "no-ignore", false, "Do not honour .gitignore")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Files scanned in parallel (0 = one per CPU)")
	scanCmd.Flags().StringVar(&scanDedupe, "dedupe", "location", "Deduplicate results by: location, content")

	rootCmd.AddCommand(scanCmd)
}

// scanRecord is the JSON form of one result.
type scanRecord struct {
	Path        string            `json:"path"`
	RuleID      string            `json:"rule_id"`
	RuleName    string            `json:"rule_name"`
	Start       int               `json:"start"`
	End         int               `json:"end"`
	Match       string            `json:"match"`
	Groups      []string          `json:"groups,omitempty"`
	NamedGroups map[string]string `json:"named_groups,omitempty"`
	Before      string            `json:"before,omitempty"`
	After       string            `json:"after,omitempty"`
}

func newScanRecord(path string, r *matcher.Result) scanRecord {
	rec := scanRecord{
		Path:     path,
		RuleID:   r.RuleID,
		RuleName: r.RuleName,
		Start:    r.Start,
		End:      r.End,
		Match:    string(r.Snippet.Matching),
		Before:   string(r.Snippet.Before),
		After:    string(r.Snippet.After),
	}
	for _, g := range r.Groups {
		rec.Groups = append(rec.Groups, string(g))
	}
	if len(r.NamedGroups) > 0 {
		rec.NamedGroups = make(map[string]string, len(r.NamedGroups))
		for k, v := range r.NamedGroups {
			rec.NamedGroups[k] = string(v)
		}
	}
	return rec
}

func runScan(cmd *cobra.Command, args []string) error {
	switch scanFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}
	dedupe := matcher.DedupeByLocation
	switch scanDedupe {
	case "location":
	case "content":
		dedupe = matcher.DedupeByContent
	default:
		return fmt.Errorf("unknown dedupe mode: %s", scanDedupe)
	}

	rules, err := loadRules(scanRulesPath, scanRulesInclude, scanRulesExclude)
	if err != nil {
		return err
	}
	m, err := matcher.New(rules,
		matcher.WithContextLines(scanContextLines),
		matcher.WithDedupe(dedupe),
		matcher.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()
	stats := m.Stats()
	slog.Debug("rules loaded", "rules", stats.Rules, "native", stats.EngineRules, "fallback", stats.FallbackRules)

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	out := cmd.OutOrStdout()
	sty, err := stylesFor(colorMode, out)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	var report *sarif.Report
	if scanFormat == "sarif" {
		report = sarif.NewReport(version, rules)
	}

	var mu sync.Mutex
	total := 0
	for _, root := range paths {
		e := enum.NewFilesystemEnumerator(enum.Config{
			Root:          root,
			IncludeHidden: scanIncludeHidden,
			NoIgnore:      scanNoIgnore,
			MaxFileSize:   scanMaxFileSize,
			Workers:       scanWorkers,
		})
		err := e.Enumerate(cmdContext(cmd), func(path string, content []byte) error {
			results, err := m.Match(content)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			mu.Lock()
			defer mu.Unlock()
			total += len(results)
			for _, r := range results {
				switch scanFormat {
				case "json":
					if err := enc.Encode(newScanRecord(path, r)); err != nil {
						return err
					}
				case "sarif":
					report.AddResult(path, content, r)
				default:
					writeHumanResult(out, sty, path, content, r)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	slog.Info("scan complete", "matches", total)
	if report != nil {
		return report.Write(out)
	}
	return nil
}

func writeHumanResult(w io.Writer, sty *styles, path string, content []byte, r *matcher.Result) {
	_, _, line := lineBounds(content, r.Start)
	fmt.Fprintf(w, "%s:%s: %s %s\n", sty.path.Sprint(path), sty.lineNo.Sprint(line),
		sty.id.Sprint(r.RuleID), sty.match.Sprint(string(r.Snippet.Matching)))
	for i, g := range r.Groups {
		fmt.Fprintf(w, "    group %d: %s\n", i+1, g)
	}
	if len(r.Snippet.Before) > 0 || len(r.Snippet.After) > 0 {
		ctx := string(r.Snippet.Before) + sty.match.Sprint(string(r.Snippet.Matching))
		if len(r.Snippet.After) > 0 && r.End < len(content) && content[r.End] == '\n' {
			ctx += "\n"
		}
		ctx += string(r.Snippet.After)
		for _, l := range strings.Split(strings.TrimRight(ctx, "\n"), "\n") {
			fmt.Fprintf(w, "    | %s\n", l)
		}
	}
}

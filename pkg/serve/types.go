package serve

import "encoding/json"

// Request is one NDJSON line read from the client.
type Request struct {
	Type    string          `json:"type"` // "scan" | "scan_batch" | "stats" | "close"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is one NDJSON line written back. Every request gets exactly one
// response, in request order.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type ReadyData struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

type Item struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

type ScanBatchPayload struct {
	Items []Item `json:"items"`
}

// Finding is the wire form of one matcher result.
type Finding struct {
	RuleID      string            `json:"rule_id"`
	RuleName    string            `json:"rule_name"`
	Start       int               `json:"start"`
	End         int               `json:"end"`
	Match       string            `json:"match"`
	Groups      []string          `json:"groups,omitempty"`
	NamedGroups map[string]string `json:"named_groups,omitempty"`
}

type ScanResult struct {
	Source   string    `json:"source"`
	Findings []Finding `json:"findings"`
}

type StatsData struct {
	Rules         int      `json:"rules"`
	EngineRules   int      `json:"engine_rules"`
	FallbackRules int      `json:"fallback_rules"`
	Rejected      []string `json:"rejected,omitempty"`
	Scanned       int64    `json:"scanned"`
}

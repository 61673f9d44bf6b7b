package rule

// yamlRule is one entry of a rules file.
type yamlRule struct {
	Name             string   `yaml:"name"`
	ID               string   `yaml:"id"`
	Pattern          string   `yaml:"pattern"`
	Flags            string   `yaml:"flags,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Ext              *yamlExt `yaml:"ext,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
}

// yamlExt mirrors the expression extension keys accepted by the engine.
type yamlExt struct {
	MinOffset       *uint64 `yaml:"min_offset,omitempty"`
	MaxOffset       *uint64 `yaml:"max_offset,omitempty"`
	MinLength       *uint64 `yaml:"min_length,omitempty"`
	EditDistance    *uint   `yaml:"edit_distance,omitempty"`
	HammingDistance *uint   `yaml:"hamming_distance,omitempty"`
}

// yamlRulesFile is the top-level document: a "rules" array.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}

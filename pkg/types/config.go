package types

// ChunkingConfig controls deterministic chunking of guideline lines.
// Per prd001-ingestion R2.2: never exceed MaxLinesPerChunk; try not to
// exceed MaxCharsPerChunk (soft limit); chunks are contiguous ranges.
type ChunkingConfig struct {
	// MaxLinesPerChunk is the hard line limit per chunk (default 20).
	MaxLinesPerChunk int `json:"max_lines_per_chunk" yaml:"max_lines_per_chunk"`

	// MaxCharsPerChunk is the soft character limit per chunk (default 1200).
	MaxCharsPerChunk int `json:"max_chars_per_chunk" yaml:"max_chars_per_chunk"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint overrides the API URL, e.g. for a local inference server.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds settings for the fact extraction stage.
// Per prd002-extraction R5.1-R5.3.
type ExtractionConfig struct {
	AIConfig `yaml:",inline"`

	// GuidelinesDir is the base directory for guideline artifacts
	// (contains source/, chunks/).
	GuidelinesDir string `json:"guidelines_dir" yaml:"guidelines_dir"`

	// FactsDir is the output directory for extracted fact sets.
	FactsDir string `json:"facts_dir" yaml:"facts_dir"`
}

// NormalizeConfig controls fact normalization and deduplication.
// Per prd003-normalization R4.1-R4.2.
type NormalizeConfig struct {
	// MinChars is the minimum statement length; shorter statements are
	// dropped as header/junk lines (default 10).
	MinChars int `json:"min_chars" yaml:"min_chars"`
}

// StoreConfig holds settings for the audit store stage.
// Per prd006-audit-store R1.2, R2.3.
type StoreConfig struct {
	// StoreDir is the base directory for the store (contains index/).
	StoreDir string `json:"store_dir" yaml:"store_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Chunking   ChunkingConfig   `json:"chunking" yaml:"chunking"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Normalize  NormalizeConfig  `json:"normalize" yaml:"normalize"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

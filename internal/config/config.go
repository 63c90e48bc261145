package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Extractor engine names accepted by ExtractConfig.Engine.
const (
	EngineDensity     = "density"
	EngineTrafilatura = "trafilatura"
)

// Config captures everything required to run a crawl.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	Extract ExtractConfig `yaml:"extract"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// CrawlConfig controls traversal limits, scoping, and throttling.
type CrawlConfig struct {
	StartAddress          string   `yaml:"start_address"`
	MaxDepth              int      `yaml:"max_depth"`
	MaxPages              int      `yaml:"max_pages"`
	SameDomainOnly        bool     `yaml:"same_domain_only"`
	IncludePatterns       []string `yaml:"include_patterns"`
	ExcludePatterns       []string `yaml:"exclude_patterns"`
	DelayBetweenRequests  Duration `yaml:"delay_between_requests"`
	RequestTimeout        Duration `yaml:"request_timeout"`
	StrategyDelay         Duration `yaml:"strategy_delay"`
	UseFallbackStrategies bool     `yaml:"use_fallback_strategies"`
	MaxBodyBytes          int64    `yaml:"max_body_bytes"`
}

// ExtractConfig selects and tunes the content extraction stage.
type ExtractConfig struct {
	Engine           string `yaml:"engine"`
	IncludeImages    bool   `yaml:"include_images"`
	MinContentLength int    `yaml:"min_content_length"`
}

// StorageConfig declares optional result sinks. Empty driver means results
// stay in memory for the caller.
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	DSN    string      `yaml:"dsn"`
	Path   string      `yaml:"path"`
	Chunk  ChunkConfig `yaml:"chunk"`
}

// ChunkConfig sizes the text segmentation handed to the storage pipeline.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			MaxDepth:              2,
			MaxPages:              50,
			SameDomainOnly:        true,
			DelayBetweenRequests:  DurationFrom(1 * time.Second),
			RequestTimeout:        DurationFrom(15 * time.Second),
			StrategyDelay:         DurationFrom(500 * time.Millisecond),
			UseFallbackStrategies: true,
			MaxBodyBytes:          6 * 1024 * 1024,
		},
		Extract: ExtractConfig{
			Engine:           EngineDensity,
			IncludeImages:    false,
			MinContentLength: 100,
		},
		Storage: StorageConfig{
			Chunk: ChunkConfig{
				Size:    1000,
				Overlap: 200,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration over the defaults from any reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for a crawl run.
func (c Config) Validate() error {
	if c.Crawl.StartAddress != "" {
		parsed, err := url.Parse(c.Crawl.StartAddress)
		if err != nil {
			return fmt.Errorf("invalid start_address %q: %w", c.Crawl.StartAddress, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("start_address %q missing host", c.Crawl.StartAddress)
		}
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0 (got %d)", c.Crawl.MaxDepth)
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.RequestTimeout.Duration <= 0 {
		return errors.New("crawl.request_timeout must be positive")
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	switch c.Extract.Engine {
	case EngineDensity, EngineTrafilatura:
	default:
		return fmt.Errorf("unsupported extract.engine %q", c.Extract.Engine)
	}
	if c.Extract.MinContentLength < 0 {
		return fmt.Errorf("extract.min_content_length must be >= 0 (got %d)", c.Extract.MinContentLength)
	}
	switch c.Storage.Driver {
	case "", "postgres", "jsonl":
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("storage.dsn must be set for the postgres driver")
	}
	if c.Storage.Driver == "jsonl" && strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path must be set for the jsonl driver")
	}
	if c.Storage.Chunk.Size <= 0 {
		return fmt.Errorf("storage.chunk.size must be > 0 (got %d)", c.Storage.Chunk.Size)
	}
	if c.Storage.Chunk.Overlap < 0 || c.Storage.Chunk.Overlap >= c.Storage.Chunk.Size {
		return fmt.Errorf("storage.chunk.overlap must be in [0, size) (got %d)", c.Storage.Chunk.Overlap)
	}
	return nil
}

func (c *Config) normalise() {
	c.Crawl.StartAddress = strings.TrimSpace(c.Crawl.StartAddress)
	c.Crawl.IncludePatterns = cleanPatterns(c.Crawl.IncludePatterns)
	c.Crawl.ExcludePatterns = cleanPatterns(c.Crawl.ExcludePatterns)
	c.Extract.Engine = strings.ToLower(strings.TrimSpace(c.Extract.Engine))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
}

func cleanPatterns(patterns []string) []string {
	unique := make(map[string]struct{}, len(patterns))
	cleaned := make([]string, 0, len(patterns))
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		cleaned = append(cleaned, p)
	}
	sort.Strings(cleaned)
	return cleaned
}

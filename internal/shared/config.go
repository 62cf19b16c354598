package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigError aborts the run before scanning (exit code 2).
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./convlint.db"
	} `yaml:"database"`

	Scanner struct {
		Include       []string `yaml:"include"` // globs, ** supported
		Exclude       []string `yaml:"exclude"`
		ReadTimeoutMS int      `yaml:"read_timeout_ms"`
	} `yaml:"scanner"`

	Rules struct {
		SeverityThreshold          string   `yaml:"severity_threshold"` // error|warning|info
		Disabled                   []string `yaml:"disabled"`
		VerbPrefixes               []string `yaml:"verb_prefixes"`
		RetrievalVerbs             []string `yaml:"retrieval_verbs"`
		MaxParameters              int      `yaml:"max_parameters"`
		MaxPublicMethods           int      `yaml:"max_public_methods"`
		FragmentDuplicateThreshold int      `yaml:"fragment_duplicate_threshold"`
		OverfetchDepth             int      `yaml:"overfetch_depth"`
		Packs                      []string `yaml:"packs"` // YAML rule pack paths
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
		Format string `yaml:"format"`  // "text"|"json"
	} `yaml:"reporting"`

	API struct {
		Addr           string   `yaml:"addr"`
		SessionHours   int      `yaml:"session_hours"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"api"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"console"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./convlint.db"
	c.Scanner.Include = []string{
		"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs",
		"**/*.graphql", "**/*.gql",
	}
	c.Scanner.Exclude = []string{"node_modules/**", "dist/**", "build/**", "**/*.d.ts"}
	c.Scanner.ReadTimeoutMS = 5000
	c.Rules.SeverityThreshold = "warning"
	c.Rules.VerbPrefixes = []string{"fetch", "update", "create", "delete"}
	c.Rules.RetrievalVerbs = []string{"get", "fetch", "retrieve", "load"}
	c.Rules.MaxParameters = 2
	c.Rules.MaxPublicMethods = 3
	c.Rules.FragmentDuplicateThreshold = 2
	c.Rules.OverfetchDepth = 1
	c.Reporting.OutDir = "./reports"
	c.Reporting.Format = "text"
	c.API.Addr = ":8080"
	c.API.SessionHours = 12
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	return c
}

// LoadConfig reads path (when non-empty) over the defaults, then applies
// env overrides. A missing or malformed file is fatal: the process must
// abort before scanning rather than lint with half a config.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, &ConfigError{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, &ConfigError{Path: path, Err: err}
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("CONVLINT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("CONVLINT_SEVERITY_THRESHOLD"); v != "" {
		c.Rules.SeverityThreshold = strings.ToLower(v)
	}
	if v := os.Getenv("CONVLINT_MAX_PARAMETERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rules.MaxParameters = n
		}
	}
	if v := os.Getenv("CONVLINT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CONVLINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CONVLINT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if err := validate(&c); err != nil {
		return c, &ConfigError{Path: path, Err: err}
	}
	return c, nil
}

func validate(c *Config) error {
	switch strings.ToLower(c.Rules.SeverityThreshold) {
	case "error", "warning", "info":
	default:
		return fmt.Errorf("invalid severity_threshold %q", c.Rules.SeverityThreshold)
	}
	// Zero reads as unset downstream, so an explicit 0 would silently
	// turn back into the default.
	if c.Rules.MaxParameters < 1 {
		return fmt.Errorf("max_parameters must be >= 1")
	}
	if c.Rules.MaxPublicMethods < 1 {
		return fmt.Errorf("max_public_methods must be >= 1")
	}
	if c.Rules.OverfetchDepth < 1 {
		return fmt.Errorf("overfetch_depth must be >= 1")
	}
	return nil
}

// Package config resolves guidegen settings from defaults, an optional YAML
// file, GUIDEGEN_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GUIDEGEN_"

// Config holds every setting of the generate and watch commands. Sinks stay
// off while their address is empty.
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	OutDir       string   `yaml:"out_dir"`
	Only         []string `yaml:"only"`
	Parallel     bool     `yaml:"parallel"`
	Workers      int      `yaml:"workers"`
	RelatedLimit int      `yaml:"related_limit"`
	LogLevel     string   `yaml:"log_level"`

	MetricsFile string `yaml:"metrics_file"`
	MetricsAddr string `yaml:"metrics_addr"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	Neo4jURL      string `yaml:"neo4j_url"`
	Neo4jUser     string `yaml:"neo4j_user"`
	Neo4jPass     string `yaml:"neo4j_pass"`
	Neo4jDatabase string `yaml:"neo4j_database"`

	QdrantAddr  string  `yaml:"qdrant_addr"`
	Collection  string  `yaml:"collection"`
	OllamaURL   string  `yaml:"ollama_url"`
	OllamaModel string  `yaml:"ollama_model"`
	EmbedRate   float64 `yaml:"embed_rate"`

	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DataDir:      "data",
		OutDir:       "data/guides",
		Workers:      4,
		RelatedLimit: 5,
		LogLevel:     "info",
		NATSSubject:  "guides.artifact.written",
		Neo4jUser:    "neo4j",
		Collection:   "guides",
		OllamaURL:    "http://localhost:11434",
		OllamaModel:  "nomic-embed-text",
		EmbedRate:    10,
		Debounce:     500 * time.Millisecond,
	}
}

// Load resolves the configuration for command name from args and the process
// environment. The YAML file comes from -config or GUIDEGEN_CONFIG.
func Load(name string, args []string) (Config, error) {
	return load(name, args, os.LookupEnv)
}

// LoadWith is Load for commands with flags of their own. register adds them
// to the flag set before parsing, and the positional arguments left after the
// flags are returned.
func LoadWith(name string, args []string, register func(*flag.FlagSet)) (Config, []string, error) {
	return loadWith(name, args, os.LookupEnv, register)
}

func load(name string, args []string, lookup func(string) (string, bool)) (Config, error) {
	cfg, _, err := loadWith(name, args, lookup, nil)
	return cfg, err
}

func loadWith(name string, args []string, lookup func(string) (string, bool), register func(*flag.FlagSet)) (Config, []string, error) {
	cfg := Default()

	path := configPath(args)
	if path == "" {
		path, _ = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, nil, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", path, "YAML config file")
	cfg.RegisterFlags(fs)
	if register != nil {
		register(fs)
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), cfg.Validate()
}

func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays GUIDEGEN_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}
	e.str("DATA_DIR", &c.DataDir)
	e.str("OUT_DIR", &c.OutDir)
	e.list("ONLY", &c.Only)
	e.boolean("PARALLEL", &c.Parallel)
	e.integer("WORKERS", &c.Workers)
	e.integer("RELATED_LIMIT", &c.RelatedLimit)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("METRICS_FILE", &c.MetricsFile)
	e.str("METRICS_ADDR", &c.MetricsAddr)
	e.str("NATS_URL", &c.NATSURL)
	e.str("NATS_SUBJECT", &c.NATSSubject)
	e.str("NEO4J_URL", &c.Neo4jURL)
	e.str("NEO4J_USER", &c.Neo4jUser)
	e.str("NEO4J_PASS", &c.Neo4jPass)
	e.str("NEO4J_DATABASE", &c.Neo4jDatabase)
	e.str("QDRANT_ADDR", &c.QdrantAddr)
	e.str("QDRANT_COLLECTION", &c.Collection)
	e.str("OLLAMA_URL", &c.OllamaURL)
	e.str("OLLAMA_MODEL", &c.OllamaModel)
	e.float("EMBED_RATE", &c.EmbedRate)
	e.duration("DEBOUNCE", &c.Debounce)
	return errors.Join(e.errs...)
}

// RegisterFlags binds flags to c, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DataDir, "data", c.DataDir, "directory holding players/devices/features/issues JSON")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "directory the guide artifacts are written to")
	fs.Func("only", "comma-separated generators to run (default all)", func(s string) error {
		c.Only = splitList(s)
		return nil
	})
	fs.BoolVar(&c.Parallel, "parallel", c.Parallel, "build generators concurrently")
	fs.IntVar(&c.Workers, "workers", c.Workers, "parallel build limit")
	fs.IntVar(&c.RelatedLimit, "related", c.RelatedLimit, "related guides per guide")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "Prometheus textfile written after each run")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "address serving /metrics (watch mode)")
	fs.StringVar(&c.NATSURL, "nats", c.NATSURL, "NATS URL for artifact events (empty disables)")
	fs.StringVar(&c.NATSSubject, "subject", c.NATSSubject, "NATS subject for artifact events")
	fs.StringVar(&c.Neo4jURL, "neo4j", c.Neo4jURL, "Neo4j bolt URL (empty disables graph export)")
	fs.StringVar(&c.Neo4jUser, "neo4j-user", c.Neo4jUser, "Neo4j username")
	fs.StringVar(&c.Neo4jPass, "neo4j-pass", c.Neo4jPass, "Neo4j password")
	fs.StringVar(&c.Neo4jDatabase, "neo4j-db", c.Neo4jDatabase, "Neo4j database (default database if empty)")
	fs.StringVar(&c.QdrantAddr, "qdrant", c.QdrantAddr, "Qdrant gRPC address (empty disables the search index)")
	fs.StringVar(&c.Collection, "collection", c.Collection, "Qdrant collection name")
	fs.StringVar(&c.OllamaURL, "ollama", c.OllamaURL, "Ollama base URL")
	fs.StringVar(&c.OllamaModel, "model", c.OllamaModel, "Ollama embedding model")
	fs.Float64Var(&c.EmbedRate, "embed-rate", c.EmbedRate, "embedding requests per second (0 = unlimited)")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "quiet period before a watch rerun")
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("config: data dir is required"))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("config: out dir is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("config: workers must be at least 1, got %d", c.Workers))
	}
	if c.RelatedLimit < 1 {
		errs = append(errs, fmt.Errorf("config: related limit must be at least 1, got %d", c.RelatedLimit))
	}
	if c.EmbedRate < 0 {
		errs = append(errs, fmt.Errorf("config: embed rate must not be negative, got %g", c.EmbedRate))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("config: debounce must not be negative, got %s", c.Debounce))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// configPath finds -config in args without parsing the other flags.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("config: %s%s=%q: %w", EnvPrefix, key, v, err))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.get(key); ok {
		*dst = splitList(v)
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/compiler"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "build":
		buildCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "packetc CLI\n\nUsage:\n  packetc build [-c packetc.yaml] [-v]\n\nCompiles the configured .packet entry modules and writes the resolved\nschema IR for code generators.")
}

// buildConfig is the packetc.yaml shape.
type buildConfig struct {
	Entries []string `yaml:"entries"`          // entry module paths
	Roots   []string `yaml:"roots"`            // search roots for imports; defaults to "."
	Out     string   `yaml:"out"`              // output file; defaults to ir.json
	Format  string   `yaml:"format,omitempty"` // json (default) or yaml
}

func buildCmd(args []string) {
	fl := flag.NewFlagSet("build", flag.ExitOnError)
	var cfgPath string
	var verbose bool
	fl.StringVar(&cfgPath, "c", "packetc.yaml", "build config file")
	fl.BoolVar(&verbose, "v", false, "enable debug logs")
	_ = fl.Parse(args)

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", cfgPath).Msg("cannot read build config")
	}
	var cfg buildConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Fatal().Err(err).Str("config", cfgPath).Msg("malformed build config")
	}
	if len(cfg.Entries) == 0 {
		log.Fatal().Str("config", cfgPath).Msg("no entry modules configured")
	}
	if len(cfg.Roots) == 0 {
		cfg.Roots = []string{"."}
	}
	if cfg.Out == "" {
		cfg.Out = "ir.json"
	}

	loader := &fsLoader{roots: cfg.Roots, log: log}
	start := time.Now()
	c, err := compiler.Compile(cfg.Entries, loader)
	if err != nil {
		reportIssues(log, err)
		os.Exit(1)
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("compile finished")

	irs := c.IR()
	var out []byte
	switch cfg.Format {
	case "", "json":
		out, err = irs.JSON()
	case "yaml":
		out, err = irs.YAML()
	default:
		log.Fatal().Str("format", cfg.Format).Msg("unknown output format")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("rendering IR")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Out), 0o755); err != nil {
		log.Fatal().Err(err).Msg("creating output dir")
	}
	if err := os.WriteFile(cfg.Out, out, 0o644); err != nil {
		log.Fatal().Err(err).Msg("writing output")
	}
	log.Info().Str("out", cfg.Out).Int("types", len(irs.Types)).Msg("schema compiled")
}

func reportIssues(log zerolog.Logger, err error) {
	iss, ok := packetc.AsIssues(err)
	if !ok {
		log.Error().Err(err).Msg("compile failed")
		return
	}
	for _, it := range iss {
		ev := log.Error().Str("code", it.Code).Str("path", it.Path)
		if it.Line > 0 {
			ev = ev.Int("line", it.Line).Int("col", it.Col)
		}
		if it.Hint != "" {
			ev = ev.Str("hint", it.Hint)
		}
		ev.Msg(it.Message)
	}
}

// fsLoader resolves module paths against the configured search roots. The
// .packet extension is optional in import paths.
type fsLoader struct {
	roots []string
	log   zerolog.Logger
}

func (l *fsLoader) Load(path string) ([]byte, error) {
	name := path
	if !strings.HasSuffix(name, ".packet") {
		name += ".packet"
	}
	for _, root := range l.roots {
		full := filepath.Join(root, filepath.FromSlash(name))
		data, err := os.ReadFile(full)
		if err == nil {
			l.log.Debug().Str("module", path).Str("file", full).Msg("loaded module")
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("module %q not found under %v", path, l.roots)
}

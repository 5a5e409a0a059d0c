// Package main provides the material-updater CLI that rewrites compiled
// Minecraft materials for a newer (or older) game release.
//
// Modes:
//   - single material : material-updater [flags] RenderChunk.material.bin
//   - resource pack   : material-updater [flags] pack.zip|pack.mcpack
//
// Output is staged in a scratch file next to the destination and only moved
// into place once the whole run succeeded. -y processes everything but
// writes nothing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"material-updater/internal/config"
	"material-updater/internal/stage"
	"material-updater/internal/transcode"
	"material-updater/internal/version"
	"material-updater/internal/ziputil"
)

// Config is the parsed command line, merged with the optional config file.
type Config struct {
	input      string
	output     string
	target     version.Target
	targetSet  bool
	zipLevel   int // -1 keeps the library default
	dryRun     bool
	configPath string
	samplerLOD bool
	showDiff   bool
	diffMax    int
	verbosity  int

	// set records which flags were given explicitly; config file values
	// never override them.
	set map[string]bool
}

type mode int

const (
	modeFile mode = iota
	modeZip
)

// countFlag is a boolean flag that counts repetitions (-v -v) and also
// accepts an explicit level (-v=2).
type countFlag struct{ n *int }

func (c countFlag) String() string {
	if c.n == nil {
		return "0"
	}
	return strconv.Itoa(*c.n)
}

func (c countFlag) Set(s string) error {
	switch s {
	case "true":
		*c.n++
		return nil
	case "false":
		*c.n = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*c.n = n
	return nil
}

func (countFlag) IsBoolFlag() bool { return true }

// canonical maps short flag names to the long name they alias.
var canonical = map[string]string{
	"t": "target-version",
	"o": "output",
	"z": "zip-compression",
	"y": "yeet",
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("material-updater", flag.ContinueOnError)
	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage:\n")
		fmt.Fprintf(w, "  %s [flags] <file.material.bin|pack.zip|pack.mcpack>\n", fs.Name())
		fmt.Fprintf(w, "\nTarget versions: %s\n", version.Labels(", "))
		fmt.Fprintln(w, "\nFlags:")
		fs.PrintDefaults()
	}

	fs.Var(&cfg.target, "t", "shorthand for -target-version")
	fs.Var(&cfg.target, "target-version", "game release to update to (default "+version.Default.String()+")")
	fs.StringVar(&cfg.output, "o", "", "shorthand for -output")
	fs.StringVar(&cfg.output, "output", "", "output path (default: overwrite a material, <stem>_<version><ext> for packs)")
	fs.IntVar(&cfg.zipLevel, "z", -1, "shorthand for -zip-compression")
	fs.IntVar(&cfg.zipLevel, "zip-compression", -1, "deflate level 0-9 for rewritten pack entries")
	fs.BoolVar(&cfg.dryRun, "y", false, "shorthand for -yeet")
	fs.BoolVar(&cfg.dryRun, "yeet", false, "process the input but don't write anything")
	fs.StringVar(&cfg.configPath, "config", "", "TOML defaults file (default "+config.DefaultPath+" if present)")
	fs.BoolVar(&cfg.samplerLOD, "sampler-lod-fix", false, "force level-0 texture sampling in ESSL 1.0 fragment shaders")
	fs.BoolVar(&cfg.showDiff, "diff", false, "print unified diffs of patched shader source")
	fs.IntVar(&cfg.diffMax, "diff-max-bytes", 256<<10, "skip -diff output for shaders larger than this (old+new, 0 = no limit)")
	fs.Var(countFlag{&cfg.verbosity}, "v", "verbose logging (repeat or -v=2 for debug)")
	return fs
}

// parseFlags parses args (without the program name). Flags may come before or
// after the input path.
func parseFlags(args []string) (Config, error) {
	cfg := Config{target: version.Default, set: map[string]bool{}}
	fs := newFlagSet(&cfg)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := canonical[name]; ok {
			name = long
		}
		cfg.set[name] = true
	})
	cfg.targetSet = cfg.set["target-version"]

	switch len(positional) {
	case 0:
		return cfg, errors.New("missing input file")
	case 1:
		cfg.input = positional[0]
	default:
		return cfg, fmt.Errorf("expected one input file, got %d", len(positional))
	}
	if cfg.set["zip-compression"] && (cfg.zipLevel < 0 || cfg.zipLevel > 9) {
		return cfg, fmt.Errorf("-zip-compression must be between 0 and 9, got %d", cfg.zipLevel)
	}
	if cfg.diffMax < 0 {
		return cfg, fmt.Errorf("-diff-max-bytes must not be negative, got %d", cfg.diffMax)
	}
	return cfg, nil
}

// mergeConfig fills in values from f for flags that were not given.
func mergeConfig(cfg Config, f *config.File) Config {
	if f == nil {
		return cfg
	}
	if f.TargetVersion != nil && !cfg.set["target-version"] {
		cfg.target = *f.TargetVersion
		cfg.targetSet = true
	}
	if f.ZipCompression != nil && !cfg.set["zip-compression"] {
		cfg.zipLevel = *f.ZipCompression
	}
	if f.SamplerLODFix != nil && !cfg.set["sampler-lod-fix"] {
		cfg.samplerLOD = *f.SamplerLODFix
	}
	if f.Verbosity != nil && !cfg.set["v"] {
		cfg.verbosity = *f.Verbosity
	}
	return cfg
}

func loadConfig(cfg Config) (Config, error) {
	var (
		f   *config.File
		err error
	)
	if cfg.configPath != "" {
		f, err = config.Load(cfg.configPath)
	} else {
		f, err = config.LoadDefault()
	}
	if err != nil {
		return cfg, err
	}
	return mergeConfig(cfg, f), nil
}

// selectMode picks the transcoding mode from the input's suffix. Suffixes
// are matched case sensitively, like archive entries.
func selectMode(input string) (mode, error) {
	switch {
	case transcode.IsMaterial(input):
		return modeFile, nil
	case strings.HasSuffix(input, ".zip"), strings.HasSuffix(input, ".mcpack"):
		return modeZip, nil
	}
	return 0, fmt.Errorf("unsupported input %s: want %s, .zip or .mcpack", input, transcode.MaterialSuffix)
}

// outputPath returns where the result goes and whether the name was derived
// from the input.
func outputPath(cfg Config, m mode) (string, bool) {
	if cfg.output != "" {
		return cfg.output, false
	}
	if m == modeFile {
		return cfg.input, true
	}
	ext := filepath.Ext(cfg.input)
	stem := strings.TrimSuffix(cfg.input, ext)
	return stem + "_" + cfg.target.Binary().String() + ext, true
}

func (c Config) options(r transcode.Reporter) transcode.Options {
	opts := transcode.Options{
		Target:        c.target,
		SamplerLODFix: c.samplerLOD,
		RecordChanges: c.showDiff,
		Reporter:      r,
	}
	if c.zipLevel >= 0 {
		level := c.zipLevel
		opts.CompressionLevel = &level
	}
	return opts
}

// run performs one update and prints progress to stdout.
func run(cfg Config, stdout io.Writer) error {
	log := commonlog.GetLogger("material-updater")
	con := newConsole(stdout, cfg.showDiff, cfg.diffMax)

	m, err := selectMode(cfg.input)
	if err != nil {
		return err
	}
	if !cfg.targetSet {
		con.printf("No target version specified, updating to latest preview: %s (Binary: %s)\n",
			cfg.target, cfg.target.Binary())
	}
	dst, derived := outputPath(cfg, m)
	if derived {
		if m == modeFile {
			con.printf("No output name specified, overwriting input file.\n")
		} else {
			con.printf("No output name specified, using %q\n", dst)
		}
	}

	in, err := os.Open(cfg.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := stage.New(dst, cfg.dryRun)
	if err != nil {
		return err
	}
	defer out.Discard()

	opts := cfg.options(con)
	var res transcode.Result
	switch m {
	case modeFile:
		con.printf("Processing input %s\n", con.name(cfg.input))
		res, err = transcode.UpdateFile(filepath.Base(cfg.input), in, out.Writer(), opts)
	case modeZip:
		var size int64
		size, err = sniffZip(in)
		if err != nil {
			return err
		}
		con.printf("Processing input zip %s\n", con.name(cfg.input))
		res, err = transcode.UpdateZip(in, size, out.Writer(), opts)
	}
	if err != nil {
		return err
	}
	log.Infof("shaders: %d patched, %d already patched, %d already current, %d ineligible, %d missing anchor",
		res.Shaders.Patched, res.Shaders.AlreadyPatched, res.Shaders.AlreadyCurrent,
		res.Shaders.Ineligible, res.Shaders.AnchorMissing)

	// The input may be the destination; release it before the rename.
	if err := in.Close(); err != nil {
		return fmt.Errorf("close input: %w", err)
	}
	if err := out.Commit(); err != nil {
		return err
	}

	if m == modeZip {
		con.summary(res, cfg.target)
	}
	if cfg.dryRun {
		log.Noticef("dry run, nothing written")
	} else {
		log.Noticef("wrote %s", dst)
	}
	return nil
}

// sniffZip checks the archive signature and returns the file size.
func sniffZip(f *os.File) (int64, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat input: %w", err)
	}
	head := make([]byte, 262)
	n, err := f.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read input: %w", err)
	}
	if !ziputil.IsZip(head[:n]) {
		return 0, fmt.Errorf("%s is not a zip archive", f.Name())
	}
	return st.Size(), nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(2)
	}
	cfg, err = loadConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(2)
	}
	commonlog.Configure(cfg.verbosity, nil)

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

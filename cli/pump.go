package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/filepump/pump/internal/app"
	"github.com/filepump/pump/internal/cfgfile"
	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/job"
	"github.com/filepump/pump/internal/sizeparse"
	"github.com/filepump/pump/internal/targetlist"
	"github.com/filepump/pump/internal/token"
	"github.com/filepump/pump/internal/writer"
)

// flags bundles the raw cobra flag values, kept as strings/primitives
// exactly as the user typed them. toConfig resolves these into a
// job.Config after the optional config file has been layered in.
type flags struct {
	word        string
	dicts       []string
	dictOrder   string
	markovOrder int
	encoding    string
	newlineMode string
	newlineStl  string
	pumpMode    string

	times    int64
	timesMin int64
	timesMax int64
	size     string
	maxBytes string

	chunk       string
	concurrency string
	workers     int
	generators  int

	rate     string
	cpuPct   float64
	cpuEvery int
	ramMax   string
	ramLimit string
	ramEvery int

	fsync       bool
	fsyncEveryN int
	fsyncEveryB string
	hash        string
	verify      bool
	compress    string
	sparse      bool

	appendMode  bool
	resume      bool
	offset      int64
	truncateTo  string
	fallocateTo string

	ioRetries   int
	errorBudget int
	seed        int64

	progressInterval time.Duration

	diskGuard  bool
	diskMargin string
	maxTimes   int64

	configPath string
	filelist   string
	dir        bool
}

func registerFlags(root *cobra.Command) {
	f := &flags{}
	fl := root.Flags()

	fl.StringVar(&f.word, "word", "", "literal word/phrase to repeat (mode word)")
	fl.StringArrayVar(&f.dicts, "dict", nil, "dictionary file (mode dict/markov, repeatable)")
	fl.StringVar(&f.dictOrder, "dict-order", "sequential", "dictionary draw order: sequential|reverse|presorted|random")
	fl.IntVar(&f.markovOrder, "markov-order", 2, "Markov chain prefix length (mode markov)")
	fl.StringVar(&f.encoding, "encoding", "utf8", "text encoding: utf8|latin1")
	fl.StringVar(&f.newlineMode, "newline-mode", "none", "newline insertion scope: none|word|char")
	fl.StringVar(&f.newlineStl, "newline-style", "lf", "newline byte style: lf|cr|crlf")
	fl.StringVar(&f.pumpMode, "pump-mode", "word", "generator mode: word|dict|markov|bin0|bin1|randbin|randutf8|randhex|random")

	fl.Int64Var(&f.times, "times", 0, "exact repeat/token count (0 = unbounded, governed by size/max-bytes)")
	fl.Int64Var(&f.timesMin, "times-min", 0, "lower bound of a times range")
	fl.Int64Var(&f.timesMax, "times-max", 0, "upper bound of a times range")
	fl.StringVar(&f.size, "size", "", "target output size (e.g. 10MiB, 500kb)")
	fl.StringVar(&f.maxBytes, "max-bytes", "", "hard byte ceiling, dominates size and times")

	fl.StringVar(&f.chunk, "chunk", "64KiB", "write chunk size")
	fl.StringVar(&f.concurrency, "concurrency", "single", "writer backend: single|ram-buffer|multi-writer|pipeline")
	fl.IntVar(&f.workers, "workers", 1, "worker count for multi-writer")
	fl.IntVar(&f.generators, "generators", 1, "generator count for pipeline")

	fl.StringVar(&f.rate, "rate", "", "sustained write rate cap in bytes/sec (e.g. 1MiB), empty = unlimited")
	fl.Float64Var(&f.cpuPct, "cpu-pct", 0, "target CPU utilization percentage, 0 = unthrottled")
	fl.IntVar(&f.cpuEvery, "cpu-every", 20, "CPU sampling interval in chunks")
	fl.StringVar(&f.ramMax, "ram-max", "", "RAM-buffer backend's in-memory size ceiling before falling back to streaming")
	fl.StringVar(&f.ramLimit, "ram-limit", "", "abort if process RSS exceeds this value")
	fl.IntVar(&f.ramEvery, "ram-every", 20, "RSS sampling interval in chunks")

	fl.BoolVar(&f.fsync, "fsync", false, "fsync the target once the write finishes (periodic fsync needs --fsync-every-n or --fsync-every-bytes)")
	fl.IntVar(&f.fsyncEveryN, "fsync-every-n", 0, "fsync every N chunks, 0 = disabled")
	fl.StringVar(&f.fsyncEveryB, "fsync-every-bytes", "", "fsync every N bytes written, empty = disabled")
	fl.StringVar(&f.hash, "hash", "none", "running hash to compute: none|sha256|crc32|xxh3")
	fl.BoolVar(&f.verify, "verify", false, "re-read and verify the hash after writing (regular files only)")
	fl.StringVar(&f.compress, "compress", "none", "output container: none|gzip")
	fl.BoolVar(&f.sparse, "sparse", false, "skip physically writing all-zero chunks where the filesystem supports holes")

	fl.BoolVar(&f.appendMode, "append", false, "append to the target instead of truncating it")
	fl.BoolVar(&f.resume, "resume", false, "seek to EOF before writing a size-bound job (resume a previous run)")
	fl.Int64Var(&f.offset, "offset", -1, "explicit write offset, -1 = not given")
	fl.StringVar(&f.truncateTo, "truncate-to", "", "truncate/extend the target to this size before writing")
	fl.StringVar(&f.fallocateTo, "fallocate-to", "", "preallocate the target to this size before writing")

	fl.IntVar(&f.ioRetries, "io-retries", 3, "per-chunk I/O retry attempts; every failed attempt also counts against the error budget")
	fl.IntVar(&f.errorBudget, "error-budget", 10, "total retryable I/O errors tolerated before aborting")
	fl.Int64Var(&f.seed, "seed", 0, "deterministic RNG seed (unset = nondeterministic)")

	fl.DurationVar(&f.progressInterval, "progress-interval", 0, "progress log interval, 0 = disabled")

	fl.BoolVar(&f.diskGuard, "disk-guard", true, "check free disk space before writing")
	fl.StringVar(&f.diskMargin, "disk-margin", "64MiB", "required free-space margin beyond the estimated output size")
	fl.Int64Var(&f.maxTimes, "max-times", 0, "hard ceiling on the resolved times count, 0 = unbounded")

	fl.StringVar(&f.configPath, "config", "", "load defaults from a JSON/YAML/TOML config file")
	fl.StringVar(&f.filelist, "filelist", "", "write the same job to every path listed in this file")
	fl.BoolVar(&f.dir, "dir", false, "treat <target> as a directory and generate one file per repetition inside it")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return runPump(cmd, f, args)
	}
}

func runPump(cmd *cobra.Command, f *flags, args []string) error {
	if f.configPath != "" {
		fileVals, err := cfgfile.Load(f.configPath)
		if err != nil {
			return err
		}
		applyConfigFile(cmd, fileVals)
	}

	target := args[0]
	cfg, err := f.toConfig()
	if err != nil {
		return err
	}

	targets, err := resolveTargets(target, f, cfg)
	if err != nil {
		return err
	}
	if cfg.Verify && len(targets) == 1 && targetlist.IsStdout(targets[0]) {
		Warn("--verify has no effect on a standard-output target")
	}

	Blank()
	Header("", "pump")
	Summary(
		"Mode", f.pumpMode,
		"Targets", fmt.Sprint(len(targets)),
		"Concurrency", f.concurrency,
	)
	Blank()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	a := app.New(app.WithLogger(logger))
	code := a.Run(func(ctx context.Context) int {
		return job.RunTargets(ctx, cfg, targets, logger)
	})

	if code == job.ExitSuccess {
		Success("done")
	} else {
		Error(fmt.Sprintf("exited with status %d", code))
	}
	os.Exit(code)
	return nil
}

// applyConfigFile sets any flag the user did not explicitly pass on the
// command line from the matching underscored key in fileVals.
func applyConfigFile(cmd *cobra.Command, fileVals map[string]any) {
	for name, v := range fileVals {
		flagName := dashed(name)
		fl := cmd.Flags().Lookup(flagName)
		if fl == nil || cmd.Flags().Changed(flagName) {
			continue
		}
		_ = fl.Value.Set(fmt.Sprint(v))
	}
}

func resolveTargets(target string, f *flags, cfg job.Config) ([]string, error) {
	switch {
	case targetlist.IsStdout(target):
		return []string{target}, nil
	case f.dir:
		return targetlist.DirectoryTargets(target, f.filelist, int(cfg.EffectiveTimes()))
	case f.filelist != "":
		return targetlist.FromFilelist(f.filelist)
	default:
		return []string{target}, nil
	}
}

func (f *flags) toConfig() (job.Config, error) {
	var cfg job.Config

	cfg.Disposition = writer.Truncate
	if f.appendMode {
		cfg.Disposition = writer.Append
	}

	mode, err := parsePumpMode(f.pumpMode)
	if err != nil {
		return cfg, err
	}
	// Word mode with dictionaries and no literal word draws from the
	// dictionaries.
	if mode == token.ModeWord && f.word == "" && len(f.dicts) > 0 {
		mode = token.ModeDict
	}
	cfg.Mode = mode
	cfg.Word = f.word
	cfg.DictPaths = f.dicts
	cfg.MarkovN = f.markovOrder

	order, err := parseDictOrder(f.dictOrder)
	if err != nil {
		return cfg, err
	}
	cfg.DictOrder = order

	enc, err := parseEncoding(f.encoding)
	if err != nil {
		return cfg, err
	}
	cfg.Encoding = enc

	scope, err := parseNewlineScope(f.newlineMode)
	if err != nil {
		return cfg, err
	}
	cfg.NewlineScope = scope

	style, err := parseNewlineStyle(f.newlineStl)
	if err != nil {
		return cfg, err
	}
	cfg.NewlineStyle = style

	cfg.Times = f.times
	cfg.TimesMin = f.timesMin
	cfg.TimesMax = f.timesMax

	if cfg.Size, err = parseOptionalSize(f.size); err != nil {
		return cfg, err
	}
	if cfg.MaxBytes, err = parseOptionalSize(f.maxBytes); err != nil {
		return cfg, err
	}

	chunk, err := sizeparse.Parse(f.chunk)
	if err != nil {
		return cfg, fmt.Errorf("cli: --chunk: %w", err)
	}
	cfg.ChunkSize = int(chunk)

	conc, err := parseConcurrency(f.concurrency)
	if err != nil {
		return cfg, err
	}
	cfg.Concurrency = conc
	cfg.Workers = f.workers
	cfg.Generators = f.generators

	if f.rate != "" {
		if cfg.RateBPS, err = sizeparse.Parse(f.rate); err != nil {
			return cfg, fmt.Errorf("cli: --rate: %w", err)
		}
	}
	cfg.CPUPct = f.cpuPct
	cfg.CPUEvery = f.cpuEvery
	if cfg.RAMMax, err = parseOptionalSize(f.ramMax); err != nil {
		return cfg, err
	}
	if f.ramLimit != "" {
		limit, err := sizeparse.Parse(f.ramLimit)
		if err != nil {
			return cfg, fmt.Errorf("cli: --ram-limit: %w", err)
		}
		cfg.RAMLimit = uint64(limit)
	}
	cfg.RAMEvery = f.ramEvery

	cfg.FsyncEnable = f.fsync || f.fsyncEveryN > 0 || f.fsyncEveryB != ""
	cfg.FsyncEveryN = f.fsyncEveryN
	if cfg.FsyncEveryB, err = parseOptionalSize(f.fsyncEveryB); err != nil {
		return cfg, err
	}

	hash, err := parseHashKind(f.hash)
	if err != nil {
		return cfg, err
	}
	cfg.HashKind = hash
	cfg.Verify = f.verify
	cfg.Sparse = f.sparse

	compress, err := parseCompression(f.compress)
	if err != nil {
		return cfg, err
	}
	cfg.Compression = compress

	cfg.Resume = f.resume
	cfg.Offset = f.offset
	if cfg.TruncateTo, err = parseOptionalSize(f.truncateTo); err != nil {
		return cfg, err
	}
	if cfg.FallocateTo, err = parseOptionalSize(f.fallocateTo); err != nil {
		return cfg, err
	}

	cfg.IORetries = f.ioRetries
	cfg.ErrorBudget = f.errorBudget
	cfg.HasSeed = f.seed != 0
	cfg.Seed = f.seed

	cfg.ProgressInterval = f.progressInterval

	cfg.DiskGuardEnabled = f.diskGuard
	margin, err := sizeparse.Parse(f.diskMargin)
	if err != nil {
		return cfg, fmt.Errorf("cli: --disk-margin: %w", err)
	}
	cfg.DiskMargin = margin
	cfg.MaxTimes = f.maxTimes

	return cfg, nil
}

func parseOptionalSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := sizeparse.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("cli: %w", err)
	}
	return v, nil
}

func parsePumpMode(s string) (token.Mode, error) {
	switch s {
	case "word":
		return token.ModeWord, nil
	case "dict":
		return token.ModeDict, nil
	case "markov":
		return token.ModeMarkov, nil
	case "bin0":
		return token.ModeBin0, nil
	case "bin1":
		return token.ModeBin1, nil
	case "randbin":
		return token.ModeRandBin, nil
	case "randutf8":
		return token.ModeRandUTF8, nil
	case "randhex":
		return token.ModeRandHex, nil
	case "random":
		return token.ModeRandom, nil
	default:
		return 0, fmt.Errorf("cli: unknown --pump-mode %q", s)
	}
}

func parseDictOrder(s string) (token.DictOrder, error) {
	switch s {
	case "sequential":
		return token.OrderSequential, nil
	case "reverse":
		return token.OrderReverse, nil
	case "presorted":
		return token.OrderPresorted, nil
	case "random":
		return token.OrderRandom, nil
	default:
		return 0, fmt.Errorf("cli: unknown --dict-order %q", s)
	}
}

func parseEncoding(s string) (token.Encoding, error) {
	switch s {
	case "utf8":
		return token.UTF8, nil
	case "latin1":
		return token.Latin1, nil
	default:
		return 0, fmt.Errorf("cli: unknown --encoding %q", s)
	}
}

func parseNewlineScope(s string) (token.NewlineScope, error) {
	switch s {
	case "none":
		return token.ScopeNone, nil
	case "word":
		return token.ScopeWord, nil
	case "char":
		return token.ScopeChar, nil
	default:
		return 0, fmt.Errorf("cli: unknown --newline-mode %q", s)
	}
}

func parseNewlineStyle(s string) (token.NewlineStyle, error) {
	switch s {
	case "lf":
		return token.StyleLF, nil
	case "cr":
		return token.StyleCR, nil
	case "crlf":
		return token.StyleCRLF, nil
	default:
		return 0, fmt.Errorf("cli: unknown --newline-style %q", s)
	}
}

func parseConcurrency(s string) (job.Concurrency, error) {
	switch s {
	case "single":
		return job.ConcurrencySingle, nil
	case "ram-buffer":
		return job.ConcurrencyRAMBuffer, nil
	case "multi-writer":
		return job.ConcurrencyMultiWriter, nil
	case "pipeline":
		return job.ConcurrencyPipeline, nil
	default:
		return 0, fmt.Errorf("cli: unknown --concurrency %q", s)
	}
}

func parseHashKind(s string) (durability.HashKind, error) {
	switch s {
	case "none":
		return durability.HashNone, nil
	case "sha256":
		return durability.HashSHA256, nil
	case "crc32":
		return durability.HashCRC32, nil
	case "xxh3":
		return durability.HashXXH3, nil
	default:
		return durability.HashNone, fmt.Errorf("cli: unknown --hash %q", s)
	}
}

func parseCompression(s string) (job.Compression, error) {
	switch s {
	case "none":
		return job.CompressionNone, nil
	case "gzip":
		return job.CompressionGzip, nil
	default:
		return 0, fmt.Errorf("cli: unknown --compress %q", s)
	}
}

func dashed(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			out[i] = '-'
		} else {
			out[i] = name[i]
		}
	}
	return string(out)
}

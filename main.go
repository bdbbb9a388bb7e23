// Chaosimg scrambles and unscrambles images with a chaos image cipher: a
// password-seeded permutation of pixel positions followed by a per-channel
// XOR keystream, both driven by the logistic map. It is an obfuscation
// scheme; there is no integrity tag and a wrong password simply yields noise.
//
// Usage:
//
//	chaosimg scramble   [flags] <input-image>
//	chaosimg unscramble [flags] <input.png|input.chaos>
//	chaosimg version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const productName = "chaosimg"

var version = "dev"

const (
	opScramble   = "scramble"
	opUnscramble = "unscramble"
)

const usage = `Usage:
  chaosimg scramble   [flags] <input-image>
  chaosimg unscramble [flags] <input.png|input.chaos>
  chaosimg version

Run "chaosimg <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case opScramble, opUnscramble:
		os.Exit(runCipher(os.Args[1], os.Args[2:], os.Stderr))
	case "version":
		fmt.Printf("%s %s\n", productName, version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

// errUsage marks command-line mistakes, which exit with status 2.
var errUsage = errors.New("usage error")

// cipherArgs is a parsed scramble/unscramble command line with the config
// file already merged under the flags.
type cipherArgs struct {
	In       string
	Out      string
	Config   *Config
	Timeout  time.Duration
	Password passwordOptions
}

// parseCipherArgs parses args for op. Flags win over the config file; a flag
// left at its zero value keeps the configured setting.
func parseCipherArgs(op string, args []string, stderr io.Writer) (*cipherArgs, error) {
	fs := flag.NewFlagSet(op, flag.ContinueOnError)
	fs.SetOutput(stderr)
	outPath := fs.String("o", "", "output path (default derived from the input name)")
	format := fs.String("format", "", "output format when -o has no extension: png or chaos")
	workers := fs.Int("workers", -1, "substitution goroutines, 0 = one per CPU")
	configPath := fs.String("config", defaultConfigPath(), "config file (TOML or YAML)")
	password := fs.String("password", "", "password (prefer -password-file or "+passwordEnv+")")
	passwordFile := fs.String("password-file", "", "read the password from a file")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	timeout := fs.Duration("timeout", 0, "abort the cipher stage after this long")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("%w: %s takes exactly one input file", errUsage, op)
	}
	if *timeout < 0 {
		return nil, fmt.Errorf("%w: negative -timeout %s", errUsage, *timeout)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	passwordSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "password" {
			passwordSet = true
		}
	})

	return &cipherArgs{
		In:      fs.Arg(0),
		Out:     *outPath,
		Config:  cfg,
		Timeout: *timeout,
		Password: passwordOptions{
			Value:    *password,
			ValueSet: passwordSet,
			File:     *passwordFile,
			Confirm:  op == opScramble,
		},
	}, nil
}

func runCipher(op string, args []string, stderr io.Writer) int {
	ca, err := parseCipherArgs(op, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	logger := setupLogger(ca.Config.Log, stderr)

	pw, err := resolvePassword(ca.Password, terminalPrompt())
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errNoPassword) {
			return 2
		}
		return 1
	}

	ctx := context.Background()
	if ca.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ca.Timeout)
		defer cancel()
	}

	if _, err := cipherFile(ctx, op, ca.In, ca.Out, pw, ca.Config, logger); err != nil {
		logger.Error(op+" failed", "in", ca.In, "err", err)
		return 1
	}
	return 0
}

// cipherFile loads in, runs the cipher and writes the result. It returns the
// path that was written.
func cipherFile(ctx context.Context, op, in, out, password string, cfg *Config, logger *slog.Logger) (string, error) {
	start := time.Now()

	pixels, w, h, err := loadImage(in)
	if err != nil {
		return "", err
	}

	def := cfg.Format
	if op == opUnscramble {
		def = formatPNG
	}
	if out == "" {
		out = defaultOutputPath(op, in, def)
	}
	format, err := outputFormat(out, def)
	if err != nil {
		return "", err
	}
	level, err := parseZstdLevel(cfg.ZstdLevel)
	if err != nil {
		return "", err
	}

	c := Cipher{Workers: cfg.Workers}
	var result []uint32
	switch op {
	case opScramble:
		result, err = c.EncryptContext(ctx, pixels, w, h, password)
	case opUnscramble:
		result, err = c.DecryptContext(ctx, pixels, w, h, password)
	default:
		return "", fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return "", err
	}

	if err := saveImage(out, result, w, h, format, level); err != nil {
		return "", err
	}

	logger.Info(op,
		"in", in,
		"out", out,
		"width", w,
		"height", h,
		"pixels", len(result),
		"format", format,
		"elapsed", time.Since(start),
	)
	return out, nil
}

// defaultOutputPath derives photo.scrambled.png from photo.jpg and
// photo.unscrambled.png from photo.scrambled.png.
func defaultOutputPath(op, in, format string) string {
	base := strings.TrimSuffix(in, filepath.Ext(in))
	base = strings.TrimSuffix(base, ".scrambled")
	return base + "." + op + "d." + format
}

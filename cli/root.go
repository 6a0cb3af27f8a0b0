// Package cli provides the command-line interface to the pump engine:
// flag registration and translation into a job.Config. Argument parsing
// is an external collaborator; the core engine in internal/job never
// touches cobra.
package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "pump [flags] <target>",
		Short: "Generate synthetic byte streams and write them to a file, directory, or stdout",
		Long: `pump generates synthetic byte streams — repeated text tokens,
dictionary-driven words, constant-byte fills, random bytes, printable
text, hex, or N-gram text — and writes them to a target under size,
time, rate, memory, and disk guardrails.

<target> is a path, or "-" for standard output.

Examples:
  pump --word AB --times 5 --newline-mode word out.txt
  pump --pump-mode randbin --size 1MiB --hash sha256 --verify out.bin
  pump --dict words.txt --dict-order sequential --times 3 out.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}

	root.SetVersionTemplate("pump {{.Version}}\n")
	root.Version = versionString()

	registerFlags(root)

	if err := fang.Execute(ctx, root); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return err
	}
	return nil
}

func versionString() string {
	if v := os.Getenv("PUMP_VERSION"); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
	}
	return "dev"
}

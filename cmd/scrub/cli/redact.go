package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/majorcontext/scrub/internal/policy"
	"github.com/majorcontext/scrub/internal/redact"
	"github.com/majorcontext/scrub/internal/ui"
)

var (
	redactPolicy  string
	redactPackage string
	redactWorkers int
)

var redactCmd = &cobra.Command{
	Use:   "redact <src> <dst>",
	Short: "Redact a trace file",
	Long: `Redact a trace file. Reads the trace at <src>, removes content the
policy does not permit, and writes the result to <dst>. The destination
is only created if the whole run succeeds.

Examples:
  scrub redact trace.bin trace-redacted.bin
  scrub redact --policy policy.yaml trace.bin out.bin
  scrub redact --package com.example.app trace.bin out.bin`,
	Args: cobra.ExactArgs(2),
	RunE: runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)
	redactCmd.Flags().StringVar(&redactPolicy, "policy", "", "path to a policy.yaml with allow/deny adjustments")
	redactCmd.Flags().StringVar(&redactPackage, "package", "", "package whose process names may be retained")
	redactCmd.Flags().IntVar(&redactWorkers, "workers", 0, "transform worker count (0 = all CPUs)")
}

func runRedact(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	if src == dst {
		return fmt.Errorf("source and destination are the same file: %s", src)
	}

	pol := &policy.Policy{}
	if redactPolicy != "" {
		var err error
		pol, err = policy.Load(redactPolicy)
		if err != nil {
			return err
		}
	}

	targetPackage := redactPackage
	if targetPackage == "" {
		targetPackage = pol.TargetPackage
	}

	redactor := redact.NewDefaultRedactor(redact.PipelineOptions{
		ExtraAllow:    pol.AllowNumbers(),
		ExtraDeny:     pol.DenyNumbers(),
		TargetPackage: targetPackage,
		Workers:       redactWorkers,
	})

	// Ctrl-C cancels between packets; the destination is not created.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redactor.Redact(ctx, src, dst, redact.NewContext()); err != nil {
		return err
	}

	ui.Printf("%s %s\n", ui.Green("redacted"), dst)
	return nil
}

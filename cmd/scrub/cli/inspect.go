package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/majorcontext/scrub/internal/redact"
	"github.com/majorcontext/scrub/internal/schema"
	"github.com/majorcontext/scrub/internal/ui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <trace>",
	Short: "Tally the contents of a trace file",
	Long: `Tally the contents of a trace file: packet count and per-event-type
counts. Run it before and after redaction to see what was removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading trace %s: %w", args[0], err)
	}

	summary, err := redact.Summarize(raw)
	if err != nil {
		return fmt.Errorf("parsing trace %s: %w", args[0], err)
	}

	ui.Printf("%s\n", ui.Bold(args[0]))
	ui.Printf("  %s %d\n", ui.Dim("packets:"), summary.Packets)
	ui.Printf("  %s %d\n", ui.Dim("events: "), summary.Events)

	types := summary.EventTypes()
	if len(types) == 0 {
		return nil
	}

	ui.Println()
	names := make([]string, 0, len(types))
	for num := range types {
		name, ok := schema.EventNames[num]
		if !ok {
			name = fmt.Sprintf("unknown(%d)", num)
		}
		names = append(names, fmt.Sprintf("  %-22s %d", name, summary.EventFields[num]))
	}
	sort.Strings(names)
	for _, line := range names {
		ui.Println(line)
	}

	return nil
}

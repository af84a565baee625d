package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var (
	prioritizeInput    string
	prioritizeExisting string
	prioritizeMax      int
	prioritizeDryRun   bool
	prioritizeJSON     bool
)

var prioritizeCmd = &cobra.Command{
	Use:   "prioritize",
	Short: "Deduplicate, score and rank a candidate batch",
	Long: `Reads a batch of discovered candidates as JSON and prints the admitted,
fit-ranked subset that fits today's admission quota.

The input is either an array of candidates or an object with "candidates"
and optional "existing" arrays. Existing records are compared by normalised
name, website and phone.

Admitted candidates are committed against today's quota unless --dry-run is
given, in which case the reservation is released. Companies are recorded in
the ledger either way.`,
	Example: `  leadscout prioritize --input batch.json
  scraper | leadscout prioritize --json --max 10`,
	Args: cobra.NoArgs,
	RunE: runPrioritize,
}

func init() {
	prioritizeCmd.Flags().StringVarP(&prioritizeInput, "input", "i", "-", "candidate batch file, - for stdin")
	prioritizeCmd.Flags().StringVar(&prioritizeExisting, "existing", "", "JSON array of stored records to compare against")
	prioritizeCmd.Flags().IntVarP(&prioritizeMax, "max", "n", 0, "admit at most this many (0 = up to remaining quota)")
	prioritizeCmd.Flags().BoolVar(&prioritizeDryRun, "dry-run", false, "release the reservation instead of committing it")
	prioritizeCmd.Flags().BoolVar(&prioritizeJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(prioritizeCmd)
}

// candidateBatch is the object form of prioritize input.
type candidateBatch struct {
	Candidates []domain.Candidate `json:"candidates"`
	Existing   []domain.Candidate `json:"existing"`
}

// prioritizeReport is the JSON output of prioritize.
type prioritizeReport struct {
	*domain.PrioritizeResult
	Status    string             `json:"status"`
	Committed bool               `json:"committed"`
	Today     *domain.TodayStats `json:"today,omitempty"`
}

func runPrioritize(cmd *cobra.Command, _ []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}
	ctx := cmd.Context()

	data, err := readInput(cmd, prioritizeInput)
	if err != nil {
		return err
	}
	batch, err := decodeBatch(data)
	if err != nil {
		return err
	}
	if prioritizeExisting != "" {
		raw, err := os.ReadFile(prioritizeExisting)
		if err != nil {
			return fmt.Errorf("reading existing records: %w", err)
		}
		var existing []domain.Candidate
		if err := json.Unmarshal(raw, &existing); err != nil {
			return fmt.Errorf("parsing existing records: %w", err)
		}
		batch.Existing = append(batch.Existing, existing...)
	}

	result, err := discoveryService.Prioritize(ctx, batch.Candidates, batch.Existing,
		domain.PrioritizeOptions{MaxCandidates: prioritizeMax})
	if err != nil {
		return fmt.Errorf("prioritize failed: %w", err)
	}

	report := prioritizeReport{PrioritizeResult: result, Status: result.Status()}
	if result.RunID != "" {
		if prioritizeDryRun {
			if err := discoveryService.Release(result.RunID); err != nil {
				return fmt.Errorf("releasing run: %w", err)
			}
		} else {
			today, err := discoveryService.RecordAdmitted(ctx, result.RunID, len(result.Admitted))
			if err != nil {
				return fmt.Errorf("committing admissions: %w", err)
			}
			report.Committed = true
			report.Today = &today
		}
	}

	if prioritizeJSON {
		return printJSON(cmd, report)
	}
	printPrioritizeTable(cmd.OutOrStdout(), report)
	return nil
}

func printPrioritizeTable(w io.Writer, r prioritizeReport) {
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintf(w, "Discovered %d, admitted %d (duplicates %d, filtered %d, malformed %d, truncated %d)\n",
		r.Discovered, len(r.Admitted), r.Duplicates, r.Filtered, r.Malformed, r.Truncated)

	if len(r.Admitted) > 0 {
		fmt.Fprintln(w)
		for i, c := range r.Admitted {
			fmt.Fprintf(w, "  [%d] %-40s %5.1f  %s\n", i+1, c.CompanyName, c.FitScore, c.Location)
		}
		fmt.Fprintln(w)
	}

	switch {
	case r.Committed:
		fmt.Fprintf(w, "Committed. %d of %d admitted today, %d remaining.\n",
			r.Today.Admitted, r.Today.DailyLimit, r.Today.Remaining)
	case len(r.Admitted) > 0:
		fmt.Fprintln(w, "Dry run: reservation released, nothing committed.")
	default:
		fmt.Fprintf(w, "%d remaining today.\n", r.Remaining)
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// decodeBatch accepts either a candidate array or a candidateBatch object.
func decodeBatch(data []byte) (candidateBatch, error) {
	var batch candidateBatch
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return batch, fmt.Errorf("%w: empty candidate batch", domain.ErrInvalidInput)
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &batch.Candidates); err != nil {
			return batch, fmt.Errorf("%w: parsing candidates: %v", domain.ErrInvalidInput, err)
		}
		return batch, nil
	}
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return batch, fmt.Errorf("%w: parsing candidate batch: %v", domain.ErrInvalidInput, err)
	}
	return batch, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

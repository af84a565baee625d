package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

var (
	explainInput     string
	explainCandidate domain.Candidate
	explainJSON      bool
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Itemise a candidate's fit score",
	Long: `Scores one candidate against the fit profile and prints each
contribution. Nothing is recorded in the ledger.

The candidate is read from --input as JSON, or built from flags.`,
	Example: `  leadscout explain --name "Aloha Surf Co" --industry retail --location Honolulu
  echo '{"company_name":"Kona Dental"}' | leadscout explain -i -`,
	Args: cobra.NoArgs,
	RunE: runExplain,
}

func init() {
	f := explainCmd.Flags()
	f.StringVarP(&explainInput, "input", "i", "", "candidate JSON file (- for stdin)")
	f.StringVar(&explainCandidate.CompanyName, "name", "", "company name")
	f.StringVar(&explainCandidate.Industry, "industry", "", "industry")
	f.StringVar(&explainCandidate.Location, "location", "", "location")
	f.IntVar(&explainCandidate.EmployeeCount, "employees", 0, "employee count")
	f.StringVar(&explainCandidate.Website, "website", "", "website")
	f.StringVar(&explainCandidate.Email, "email", "", "contact email")
	f.StringVar(&explainCandidate.Phone, "phone", "", "contact phone")
	f.StringVar(&explainCandidate.Description, "description", "", "description")
	f.BoolVar(&explainJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, _ []string) error {
	if err := requireDiscovery(); err != nil {
		return err
	}

	candidate := explainCandidate
	if explainInput != "" {
		data, err := readInput(cmd, explainInput)
		if err != nil {
			return err
		}
		candidate = domain.Candidate{}
		if err := json.Unmarshal(data, &candidate); err != nil {
			return fmt.Errorf("%w: decoding candidate: %v", domain.ErrInvalidInput, err)
		}
	}
	if !candidate.HasName() {
		return fmt.Errorf("%w: candidate needs a company name", domain.ErrInvalidInput)
	}

	b := discoveryService.Explain(candidate)
	if explainJSON {
		return printJSON(cmd, b)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n\n", candidate.CompanyName)
	rows := []struct {
		label string
		value float64
	}{
		{"Base", b.Base},
		{"Industry", b.Industry},
		{"Location", b.Location},
		{"Size", b.Size},
		{"Pain points", b.PainPoints},
		{"Tech", b.Tech},
		{"Website", b.Website},
		{"Contact", b.Contact},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-12s %6.1f\n", r.label, r.value)
	}
	fmt.Fprintf(w, "  %-12s %6.1f\n", "Total", b.Total)
	return nil
}

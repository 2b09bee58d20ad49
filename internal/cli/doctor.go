package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/doctor"
)

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check state directory health",
	Long: `Check state directory health.

Runs diagnostic checks on the state directory: key material, encrypted
rubric, configuration and source readability. Use --strict to also
verify the full history hash chain.`,
	Run: func(cmd *cobra.Command, args []string) {
		doc := doctor.NewDoctor(stateDir())
		result, err := doc.Check(doctorStrict)
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println("State directory is healthy.")
			return
		}
		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
		}
		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "include history chain verification")
	rootCmd.AddCommand(doctorCmd)
}

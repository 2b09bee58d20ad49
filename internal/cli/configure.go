package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/engine"
	"github.com/scorebox-project/scorebox/pkg/webhook"
)

var configureCmd = &cobra.Command{
	Use:   "configure <rubric.json>",
	Short: "Validate and store a rubric",
	Long: `Validate and store a rubric.

The rubric document is validated structurally and semantically, then
encrypted into the state directory. The plaintext file can be deleted
afterwards; scoring only ever reads the encrypted copy.

Configuring again replaces the stored rubric.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmtErr("read rubric: %v", err)
			os.Exit(1)
		}

		st := requireStore()
		rubric, err := st.SaveDocument(data)
		if err != nil {
			fmtErr("configure: %v", err)
			os.Exit(1)
		}

		max := engine.MaxPoints(rubric)
		notify(loadConfig(), func(c *webhook.Client) error {
			return c.SendRubricConfigured(max, false)
		})

		if jsonOutput {
			outputJSON(map[string]any{
				"configured": true,
				"max_points": max,
				"questions":  len(rubric.ForensicsQuestions),
			})
			return
		}
		fmt.Printf("Rubric stored. Maximum attainable score: %d points.\n", max)
		if n := len(rubric.ForensicsQuestions); n > 0 {
			fmt.Printf("%d forensics question(s) loaded.\n", n)
		}
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

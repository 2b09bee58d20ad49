package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/answers"
	"github.com/scorebox-project/scorebox/internal/engine"
	"github.com/scorebox-project/scorebox/internal/history"
	"github.com/scorebox-project/scorebox/pkg/color"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration state and the last recorded score",
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()

		rubric, err := st.Load()
		if err != nil {
			fmtErr("load rubric: %v", err)
			return
		}

		status := map[string]any{
			"state_dir":  stateDir(),
			"configured": rubric != nil,
		}
		if rubric != nil {
			status["max_points"] = engine.MaxPoints(rubric)
			status["questions"] = len(rubric.ForensicsQuestions)

			answered, aerr := answers.NewStore(stateDir()).Answered()
			if aerr == nil {
				n := 0
				for id, ok := range answered {
					if _, known := rubric.ForensicsQuestions[id]; ok && known {
						n++
					}
				}
				status["questions_answered"] = n
			}
		}

		records, herr := history.NewLog(stateDir()).List()
		if herr == nil && len(records) > 0 {
			last := records[len(records)-1]
			status["last_run"] = map[string]any{
				"timestamp": last.Timestamp,
				"trigger":   last.Trigger,
				"points":    last.CurrentPoints,
				"max":       last.MaxPoints,
				"items":     last.ItemCount,
			}
		}

		if jsonOutput {
			outputJSON(status)
			return
		}

		fmt.Printf("State directory: %s\n", stateDir())
		if rubric == nil {
			fmt.Println("No rubric configured.")
			return
		}
		fmt.Printf("Rubric: %s, maximum %d points\n", color.Success("configured"), status["max_points"])
		if n, ok := status["questions"].(int); ok && n > 0 {
			fmt.Printf("Forensics questions: %d answered of %d\n", status["questions_answered"], n)
		}
		if herr == nil && len(records) > 0 {
			last := records[len(records)-1]
			fmt.Printf("Last run: %s (%s) scored %d / %d\n",
				last.Timestamp.Format("2006-01-02 15:04:05"), last.Trigger, last.CurrentPoints, last.MaxPoints)
		} else {
			fmt.Println("No checks run yet.")
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

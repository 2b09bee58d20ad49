package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/answers"
	"github.com/scorebox-project/scorebox/pkg/color"
	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/webhook"
)

var answerCmd = &cobra.Command{
	Use:   "answer <question-id> <answer>",
	Short: "Submit an answer to a forensics question",
	Long: `Submit an answer to a forensics question.

Comparison ignores case and surrounding whitespace. A wrong answer locks
the question for two minutes before the next attempt. Correct answers
count toward the score from the next check onward.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()
		rubric := requireRubric(st)

		store := answers.NewStore(stateDir())
		err := store.Submit(rubric, args[0], args[1])
		switch {
		case err == nil:
			notify(loadConfig(), func(c *webhook.Client) error {
				return c.SendQuestionAnswered(args[0], false)
			})
			if jsonOutput {
				outputJSON(map[string]any{"question": args[0], "correct": true})
				return
			}
			fmt.Println(color.Success("Correct!"))
		case errors.Is(err, errclass.ErrAnswerIncorrect):
			if jsonOutput {
				outputJSON(map[string]any{"question": args[0], "correct": false})
			} else {
				fmt.Println(color.Error("Incorrect. Try again in two minutes."))
			}
			os.Exit(1)
		case errors.Is(err, errclass.ErrCooldownActive):
			fmtErr("%v", err)
			os.Exit(1)
		default:
			fmtErr("answer: %v", err)
			os.Exit(1)
		}
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List forensics questions and their answered state",
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()
		rubric := requireRubric(st)

		store := answers.NewStore(stateDir())
		answered, err := store.Answered()
		if err != nil {
			fmtErr("read answers: %v", err)
			os.Exit(1)
		}

		ids := make([]string, 0, len(rubric.ForensicsQuestions))
		for id := range rubric.ForensicsQuestions {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		if jsonOutput {
			out := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				out = append(out, map[string]any{
					"id":       id,
					"prompt":   rubric.ForensicsQuestions[id].Prompt,
					"answered": answered[id],
				})
			}
			outputJSON(out)
			return
		}

		if len(ids) == 0 {
			fmt.Println("The rubric has no forensics questions.")
			return
		}
		for _, id := range ids {
			mark := color.Dim("[ ]")
			if answered[id] {
				mark = color.Success("[x]")
			}
			fmt.Printf("%s %s  %s\n", mark, color.Code(id), rubric.ForensicsQuestions[id].Prompt)
		}
	},
}

func init() {
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(questionsCmd)
}

package cli

import (
	"fmt"

	"github.com/scorebox-project/scorebox/pkg/color"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// renderReport prints the human-readable score breakdown, grouped by
// category.
func renderReport(report *model.Report) {
	header := fmt.Sprintf("Score: %d / %d", report.CurrentPoints, report.MaxPoints)
	fmt.Println(color.Header(header))

	if len(report.Items) == 0 {
		fmt.Println(color.Dim("No rules satisfied yet."))
		return
	}

	var current model.Category
	for _, item := range report.Items {
		if item.Key.Category != current {
			current = item.Key.Category
			fmt.Printf("\n%s\n", color.Category(string(current)))
		}
		fmt.Printf("  %s  %s\n", color.Points(item.Points), item.Description)
	}
}

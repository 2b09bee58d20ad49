// Package scorebox provides a high-level library API for the scorebox
// engine.
//
// This package is the integration point for external consumers such as
// a training-image provisioner or a scoreboard service. It wraps the
// internal packages into a clean, stable public API.
//
// # Concurrency Safety
//
// Scorebox operations are filesystem-based and follow these rules:
//
//   - Multiple Client instances over DIFFERENT state directories are
//     fully independent and safe to use concurrently.
//
//   - Multiple Client instances over the SAME state directory must NOT
//     call mutating operations (Configure, Score, Answer, Reset)
//     concurrently. Use the state-dir lock or a single Client.
//
//   - A single Client serializes its own mutating operations.
//
// # Recommended Usage Pattern (provisioner)
//
//	// Image build: install the rubric before handing the machine over.
//	client, err := scorebox.Open(stateDir)
//	blob, _ := os.ReadFile("rubric.json")
//	max, err := client.Configure(blob)
//
//	// Scoreboard poll: run a cycle and read the result.
//	report, err := client.Score(ctx)
//	fmt.Printf("%d / %d\n", report.CurrentPoints, report.MaxPoints)
package scorebox

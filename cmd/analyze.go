package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shipscore/utils"
)

var (
	analyzeJSON   bool
	analyzeNoSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url-or-id>...",
	Short: "Score one or more App Store or Google Play apps.",
	Example: `  shipscore analyze https://apps.apple.com/us/app/example/id1234567890
  shipscore analyze 1234567890 "https://play.google.com/store/apps/details?id=com.example.app"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := newPipeline(ctx, cfg, logger, !analyzeNoSave)
		if err != nil {
			return err
		}
		defer p.Close()

		outcomes := make([]analyzeOutcome, len(args))
		pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimit)
		for i, raw := range args {
			pool.Submit(func() {
				result, err := p.analyzer.Analyze(ctx, raw)
				outcomes[i] = analyzeOutcome{URL: raw, Result: result, Err: err}
			})
		}
		pool.Wait()

		out := cmd.OutOrStdout()
		failed := 0
		if analyzeJSON {
			results := make([]any, 0, len(outcomes))
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					results = append(results, map[string]string{"url": o.URL, "error": o.Err.Error()})
					continue
				}
				results = append(results, o.Result)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					continue
				}
				printReport(out, o.Result)
			}
			if len(outcomes) > 1 || failed > 0 {
				fmt.Fprintln(out)
				printSummary(out, outcomes)
			}
		}

		if failed == len(outcomes) {
			return errors.New("no app could be analyzed")
		}
		if failed > 0 {
			logger.Warn("[cmd] %d of %d apps failed", failed, len(outcomes))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print results as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not record results in the gallery")
	analyzeCmd.Flags().Int("concurrency", 3, "apps analyzed at once")
	_ = v.BindPFlag("max_concurrency", analyzeCmd.Flags().Lookup("concurrency"))
}

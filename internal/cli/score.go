package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/scoring"
)

// NewScoreCmd scores an answers file offline, without a server or storage.
func NewScoreCmd() *cobra.Command {
	var (
		dir  string
		topN int
	)
	cmd := &cobra.Command{
		Use:   "score <assessment> <answers.json>",
		Short: "Score a JSON answer record ({\"questionId\": optionIndex})",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(dir)
			if err != nil {
				return err
			}
			assessment, ok := c.Assessment(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], domain.ErrAssessmentNotFound)
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var answers domain.AnswerRecord
			if err := json.Unmarshal(data, &answers); err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}

			scores := scoring.Aggregate(assessment.Questions, answers, assessment.Mode)
			report := domain.ScoreReport{
				AssessmentID:  assessment.ID,
				Mode:          assessment.Mode,
				Scores:        scores,
				Total:         scoring.Total(scores),
				TopCategories: scoring.TopN(scores, topN),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&dir, "catalog-dir", "", "catalog directory (defaults to the embedded catalog)")
	cmd.Flags().IntVar(&topN, "top", scoring.DefaultTopN, "number of top categories to report")
	return cmd
}

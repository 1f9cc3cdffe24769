package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"career-assessment-service/internal/catalog"
)

// NewCatalogCmd groups catalog maintenance commands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect assessment catalogs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate a catalog directory (or the embedded catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			c, err := loadCatalog(dir)
			if err != nil {
				var loadErr *catalog.LoadError
				if errors.As(err, &loadErr) {
					for _, issue := range loadErr.Issues {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", issue.Path, issue.Message)
					}
					return fmt.Errorf("%d catalog issue(s) found", len(loadErr.Issues))
				}
				return err
			}
			for _, a := range c.Assessments() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-12s %3d questions  %s\n", a.ID, a.Mode, len(a.Questions), a.Title)
			}
			return nil
		},
	})
	return cmd
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(dir)
}

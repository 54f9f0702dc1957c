package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brogergvhs/noveld/internal/config"

	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved profiles with the novel each one downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListProfiles()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No configs yet. Run `noveld config init` to create one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "\tLABEL\tNOVEL\tSITE\tSTART\tOUTPUT")

		for _, p := range list {
			mark := ""
			if p.Active {
				mark = "*"
			}
			if p.Err != nil {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\t\t\n", mark, p.Label, p.Summary())
				continue
			}

			novel, output := p.Novel, p.Output
			if novel == "" {
				novel, output = "-", "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", mark, p.Label, novel, p.Site, p.Start, output)
		}

		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush table output: %v\n", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}

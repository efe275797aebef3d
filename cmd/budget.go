package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// budgetCmd implements: doctoveille budget
var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show request budget usage per category",
	Long:  "Prints how many requests each tracked category has spent inside its sliding window, and how many remain before further requests get refused.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tUSED\tQUOTA\tREMAINING\tWINDOW")
		for _, u := range client.BudgetUsage(time.Now()) {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
				u.Category, u.Used, u.Quota, u.Quota-u.Used, u.Window)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

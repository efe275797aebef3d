package cmd

import (
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/lmarchal/doctoveille/internal/utils"
)

// watchCmd implements: doctoveille watch
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run availability checks on a schedule",
	Long:  "Keeps running and repeats the availability check on a cron schedule, emailing the digest whenever a slot opens before the cutoff date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		schedule, _ := cmd.Flags().GetString("schedule")
		sendEmail, _ := cmd.Flags().GetBool("email")

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		c := cron.New()
		_, err = c.AddFunc(schedule, func() {
			if err := runOnce(client, sendEmail, -1); err != nil {
				utils.Log.Errorf("Scheduled run failed: %v", err)
			}
		})
		if err != nil {
			return err
		}

		utils.Log.Infof("Watching on schedule %q, Ctrl+C to stop", schedule)
		c.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("schedule", "@every 6h", "Cron schedule between checks (e.g. \"@every 2h\" or \"0 8 * * *\")")
	watchCmd.Flags().Bool("email", true, "Send the digest by email when slots are found")
}

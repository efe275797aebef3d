package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmarchal/doctoveille/internal/utils"
	"github.com/lmarchal/doctoveille/pkg/doctolib"
	"github.com/lmarchal/doctoveille/pkg/reminder"
)

// runCmd implements: doctoveille run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one availability check",
	Long:  "Runs one discovery + availability check and builds the digest. With --email the digest is sent through the configured SMTP settings, otherwise it is printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sendEmail, _ := cmd.Flags().GetBool("email")
		cacheMaxAge, _ := cmd.Flags().GetFloat64("cache-max-age")

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		return runOnce(client, sendEmail, cacheMaxAge)
	},
}

// runOnce performs one full reminder run. cacheMaxAgeHours < 0 keeps the
// configured cache age.
func runOnce(client *doctolib.Client, sendEmail bool, cacheMaxAgeHours float64) error {
	cfg := reminderConfig()
	if cacheMaxAgeHours >= 0 {
		cfg.CacheMaxAge = time.Duration(cacheMaxAgeHours * float64(time.Hour))
	}
	report, err := reminder.New(cfg, client).Run(time.Now())
	if err != nil {
		return err
	}
	if !report.Found {
		utils.Log.Info("No slot before the cutoff date, nothing to report")
		return nil
	}

	if sendEmail {
		m := mailerFromConfig()
		if err := m.Send(reminder.Subject, report.Digest); err != nil {
			return fmt.Errorf("could not send digest: %w", err)
		}
		utils.Log.Infof("Digest sent to %d recipient(s)", len(m.Recipients))
		return nil
	}

	fmt.Println(reminder.Subject)
	fmt.Println()
	fmt.Println(report.Digest)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("email", false, "Send the digest by email instead of printing it")
	runCmd.Flags().Float64("cache-max-age", -1, "Accept cached profile pages up to this many hours old (0 always refetches, negative uses the config value)")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lmarchal/doctoveille/pkg/booking"
)

// checkCmd implements: doctoveille check <profile-url-or-slug>
// Debug aid: shows what the matcher resolves for a single profile.
var checkCmd = &cobra.Command{
	Use:   "check <profile-url-or-slug>",
	Short: "Inspect a single profile",
	Long:  "Resolves one profile, applies the configured keyword narrowing and polls its next slots. Useful to verify a profile URL before adding it to the config.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speciality, _ := cmd.Flags().GetString("speciality")

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()
		cfg := reminderConfig()

		slug, profile, err := booking.ResolveProfile(client, args[0], cfg.CacheMaxAge)
		if err != nil {
			return err
		}

		if booking.IsOrganization(profile) {
			fmt.Printf("%s is a group practice. Members matching the configured types:\n", slug)
			for _, link := range booking.MemberLinks(profile, cfg.PractitionerTypes) {
				fmt.Println("  " + link)
			}
			return nil
		}

		if speciality == "" && len(cfg.PractitionerTypes) == 1 {
			speciality = cfg.PractitionerTypes[0]
		}
		p, err := booking.NewPractitioner(slug, profile, speciality)
		if err != nil {
			return err
		}
		if err := p.Narrow(cfg.Keywords, cfg.ForbiddenKeywords); err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", p.Name, p.Speciality)
		fmt.Println("Motives after narrowing:")
		for id, label := range p.Motives {
			fmt.Printf("  %d: %s\n", id, label)
		}
		fmt.Println("Agendas:")
		for agendaID, practices := range p.Agendas {
			for practiceID, motiveIDs := range practices {
				fmt.Printf("  agenda %d / practice %d -> motives %v\n", agendaID, practiceID, motiveIDs)
			}
		}

		if !p.PollNextSlots(client) {
			fmt.Println("No open slot reported for any triple.")
			return nil
		}
		fmt.Println("Next slots:")
		for _, slot := range p.NextSlots {
			fmt.Printf("  %s : %s\n", p.Motives[slot.MotiveID], slot.Start.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("speciality", "", "Speciality slug or name to resolve on multi-speciality profiles")
}

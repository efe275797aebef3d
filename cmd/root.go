package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmarchal/doctoveille/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	     _            _                  _ _ _
	  __| | ___   ___| |_ _____   _____(_) | | ___
	 / _` + "`" + ` |/ _ \ / __| __/ _ \ \ / / _ \ | | |/ _ \
	| (_| | (_) | (__| || (_) \ V /  __/ | | |  __/
	 \__,_|\___/ \___|\__\___/ \_/ \___|_|_|_|\___|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doctoveille",
	Short: "A doctolib.fr availability watcher.",
	Long: LOGO + `doctoveille polls doctolib.fr for practitioners matching your search,
narrows their visit motives by keyword, and emails you a digest as soon as a
slot opens before your cutoff date. All requests stay within a persistent
per-category budget so the tool never hammers the site.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.doctoveille.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".doctoveille")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.doctoveille.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("search.practitioner_types", []string{})
	viper.SetDefault("search.city", "")
	viper.SetDefault("search.street", "")
	viper.SetDefault("search.max_distance_km", 10.0)
	viper.SetDefault("motives.keywords", []string{})
	viper.SetDefault("motives.forbidden_keywords", []string{})
	viper.SetDefault("reminder.max_days_from_today", 10)
	viper.SetDefault("reminder.max_date", "")
	viper.SetDefault("profiles", []string{})
	viper.SetDefault("fetch.concurrency", 3)
	viper.SetDefault("fetch.cache_max_age_hours", 24.0)
	viper.SetDefault("storage.dir", "")
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from", "")
	viper.SetDefault("smtp.recipients", []string{})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

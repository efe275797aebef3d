package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lmarchal/doctoveille/internal/utils"
	"github.com/lmarchal/doctoveille/pkg/doctolib"
	"github.com/lmarchal/doctoveille/pkg/ledger"
	"github.com/lmarchal/doctoveille/pkg/mailer"
	"github.com/lmarchal/doctoveille/pkg/reminder"
	"github.com/lmarchal/doctoveille/pkg/webcache"
)

// openClient builds the one fetcher instance every command shares: persisted
// request ledger plus sqlite response cache, both under the storage dir.
func openClient() (*doctolib.Client, error) {
	dir, err := utils.DefaultDataDir(viper.GetString("storage.dir"))
	if err != nil {
		return nil, err
	}
	store, err := ledger.NewFileStore(filepath.Join(dir, "request_ledger.json"))
	if err != nil {
		return nil, err
	}
	cache, err := webcache.Open(filepath.Join(dir, "url_cache.sqlite"))
	if err != nil {
		return nil, err
	}
	return doctolib.NewClient(store, cache)
}

func reminderConfig() reminder.Config {
	cfg := reminder.Config{
		PractitionerTypes: viper.GetStringSlice("search.practitioner_types"),
		City:              viper.GetString("search.city"),
		Street:            viper.GetString("search.street"),
		MaxDistanceKm:     viper.GetFloat64("search.max_distance_km"),
		Keywords:          viper.GetStringSlice("motives.keywords"),
		ForbiddenKeywords: viper.GetStringSlice("motives.forbidden_keywords"),
		MaxDaysFromToday:  viper.GetInt("reminder.max_days_from_today"),
		ProfileURLs:       viper.GetStringSlice("profiles"),
		Concurrency:       viper.GetInt("fetch.concurrency"),
		CacheMaxAge:       time.Duration(viper.GetFloat64("fetch.cache_max_age_hours") * float64(time.Hour)),
	}
	if raw := viper.GetString("reminder.max_date"); raw != "" {
		maxDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.Log.Errorf("Ignoring reminder.max_date %q: expected YYYY-MM-DD (%v)", raw, err)
		} else {
			cfg.MaxDate = maxDate
		}
	}
	return cfg
}

func mailerFromConfig() *mailer.Mailer {
	return &mailer.Mailer{
		Host:       viper.GetString("smtp.host"),
		Port:       viper.GetInt("smtp.port"),
		Username:   viper.GetString("smtp.username"),
		Password:   viper.GetString("smtp.password"),
		From:       viper.GetString("smtp.from"),
		Recipients: viper.GetStringSlice("smtp.recipients"),
	}
}

package reminder

import "testing"

func TestSearchURL(t *testing.T) {
	r := New(Config{City: "Toulouse", Street: "Rue des Fleurs"}, nil)

	expected := "https://www.doctolib.fr/orl-oto-rhino-laryngologie/toulouse-rue-des-fleurs.json"
	if got := r.searchURL("ORL oto rhino laryngologie"); got != expected {
		t.Fatalf("got %q, expected %q", got, expected)
	}
}

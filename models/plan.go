package models

// Plan describes the fixed click sequence on the portal. Labels live here
// instead of in the fetcher so a renamed menu entry only needs a config change.
type Plan struct {
	PortalURL string   `koanf:"url"`
	Steps     []string `koanf:"steps"`

	// SelectAllTag and SelectAllPhrase match the "select all" controls.
	SelectAllTag    string `koanf:"select_all_tag"`
	SelectAllPhrase string `koanf:"select_all_phrase"`

	// FormatControl is the name attribute of the output format dropdown.
	FormatControl string `koanf:"format_control"`
	FormatKeyword string `koanf:"format_keyword"`

	SubmitName          string `koanf:"submit_name"`
	SubmitFallbackXPath string `koanf:"submit_fallback_xpath"`
}

// DefaultPlan returns the plan for the quarterly imports table on Infoshare
func DefaultPlan() Plan {
	return Plan{
		PortalURL: "https://infoshare.stats.govt.nz/",
		Steps: []string{
			"Browse",
			"Imports and exports",
			"Imports - Summary Data - IMP",
			"Imports - confidential - values and quantities (Qrtly-Mar/Jun/Sep/Dec)",
		},
		SelectAllTag:        "span",
		SelectAllPhrase:     "select all",
		FormatControl:       "ctl00$MainContent$dlOutputOptions",
		FormatKeyword:       "csv",
		SubmitName:          "ctl00$MainContent$btnGo",
		SubmitFallbackXPath: "//input[@type='submit' and contains(@value,'Go')]",
	}
}

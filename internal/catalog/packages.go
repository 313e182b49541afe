package catalog

import "strings"

// BloatwareKeywords mark removable preinstalled or promotional packages.
var BloatwareKeywords = []string{
	"Microsoft.3DBuilder",
	"Microsoft.BingNews",
	"Microsoft.BingWeather",
	"Microsoft.Getstarted",
	"Microsoft.Microsoft3DViewer",
	"Microsoft.MicrosoftOfficeHub",
	"Microsoft.MicrosoftSolitaireCollection",
	"Microsoft.MixedReality.Portal",
	"Microsoft.OneConnect",
	"Microsoft.People",
	"Microsoft.SkypeApp",
	"Microsoft.Wallet",
	"Microsoft.WindowsFeedbackHub",
	"Microsoft.Xbox",
	"Microsoft.ZuneMusic",
	"Microsoft.ZuneVideo",
	"CandyCrush",
	"Netflix",
	"Spotify",
	"Disney",
	"Facebook",
	"Twitter",
	"Instagram",
	"TikTok",
}

// CriticalKeywords mark packages that must never be removed.
var CriticalKeywords = []string{
	"Microsoft.WindowsStore",
	"Microsoft.Windows.ShellExperienceHost",
	"Microsoft.Windows.StartMenuExperienceHost",
	"windows.immersivecontrolpanel",
	"Microsoft.Windows.Cortana",
	"Microsoft.Windows.SecHealthUI",
}

// IsBloatware reports whether name contains a bloatware keyword (case-insensitive).
func IsBloatware(name string) bool {
	return containsAny(name, BloatwareKeywords)
}

// IsCritical reports whether name contains a critical keyword (case-insensitive).
func IsCritical(name string) bool {
	return containsAny(name, CriticalKeywords)
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

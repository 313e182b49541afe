package catalog

import (
	"sort"
	"strings"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// RulePrefix starts every firewall rule this tool creates.
const RulePrefix = AppName + "_Block_"

// Hosts-file block delimiters.
const (
	HostsMarkerStart = "# " + AppName + " Telemetry Block Start"
	HostsMarkerEnd   = "# " + AppName + " Telemetry Block End"
	HostsSinkAddress = "0.0.0.0"
)

// RuleName returns the firewall rule name for an endpoint domain.
// Only dots are replaced; hyphens are kept.
func RuleName(domainName string) string {
	return RulePrefix + strings.ReplaceAll(domainName, ".", "_")
}

func ep(domainName, description, category string, addrs ...string) domain.FirewallEndpoint {
	return domain.FirewallEndpoint{
		Domain:      domainName,
		Description: description,
		Category:    category,
		Addresses:   addrs,
	}
}

// Endpoints is the known telemetry endpoint list in catalog order.
var Endpoints = []domain.FirewallEndpoint{
	ep("telemetry.microsoft.com", "Main Microsoft telemetry endpoint", "Telemetry", "13.107.5.88", "13.107.4.52"),
	ep("vortex.data.microsoft.com", "Windows telemetry data collection", "Telemetry", "13.107.5.88"),
	ep("vortex-win.data.microsoft.com", "Windows telemetry data collection", "Telemetry", "13.107.5.88"),
	ep("settings-win.data.microsoft.com", "Windows settings sync", "Telemetry", "13.107.5.88"),
	ep("watson.telemetry.microsoft.com", "Error reporting telemetry", "Error Reporting", "65.55.252.93"),
	ep("watson.microsoft.com", "Watson error reporting", "Error Reporting", "65.55.252.71"),
	ep("oca.telemetry.microsoft.com", "Online Crash Analysis", "Error Reporting", "65.55.252.63"),
	ep("sqm.telemetry.microsoft.com", "Software Quality Metrics", "Telemetry", "65.55.252.93"),
	ep("feedback.microsoft.com", "Feedback Hub", "Feedback", "13.107.6.158"),
	ep("feedback.windows.com", "Windows Feedback", "Feedback", "13.107.6.158"),
	ep("diagnostics.support.microsoft.com", "Diagnostics support", "Diagnostics", "13.107.21.200"),
	ep("corp.sts.microsoft.com", "Corporate telemetry", "Telemetry", "13.107.6.171"),
	ep("statsfe2.ws.microsoft.com", "Statistics endpoint", "Statistics", "13.107.4.52"),
	ep("i1.services.social.microsoft.com", "Social services telemetry", "Social", "13.107.6.158"),
	ep("redir.metaservices.microsoft.com", "Metaservices redirect", "Telemetry", "13.107.4.52"),
	ep("choice.microsoft.com", "Choice settings", "Telemetry", "13.107.4.50"),
	ep("df.telemetry.microsoft.com", "Data forwarding telemetry", "Telemetry", "13.107.5.88"),
	ep("reports.wes.df.telemetry.microsoft.com", "Telemetry reports", "Telemetry", "13.107.5.88"),
	ep("wes.df.telemetry.microsoft.com", "WES telemetry", "Telemetry", "13.107.5.88"),
	ep("services.wes.df.telemetry.microsoft.com", "WES telemetry services", "Telemetry", "13.107.5.88"),
	ep("sqm.df.telemetry.microsoft.com", "SQM telemetry", "Telemetry", "13.107.5.88"),
	ep("activity.windows.com", "Windows Activity tracking", "Activity", "13.107.6.158"),
	ep("bingapis.com", "Bing APIs", "Advertising", "13.107.21.200"),
}

// EndpointCategories returns the sorted distinct categories of endpoints.
func EndpointCategories(endpoints []domain.FirewallEndpoint) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range endpoints {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}

// EndpointsInCategory filters endpoints, keeping catalog order.
func EndpointsInCategory(endpoints []domain.FirewallEndpoint, category string) []domain.FirewallEndpoint {
	var out []domain.FirewallEndpoint
	for _, e := range endpoints {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

package tier

import (
	"strings"

	"golang.org/x/text/message"
)

var limitNouns = map[LimitName]string{
	LimitItinerariesPerMonth:  "itineraries",
	LimitPDFDownloadsPerMonth: "PDF downloads",
	LimitAPICallsPerMonth:     "API calls",
	LimitTeamMembers:          "team members",
	LimitClients:              "clients",
}

var featureLabels = map[Feature]string{
	FeatureAIItinerary:       "AI itinerary generation",
	FeaturePDFExport:         "PDF export",
	FeatureCustomBranding:    "Custom branding",
	FeatureClientCRM:         "Client CRM",
	FeatureHubSpotSync:       "HubSpot sync",
	FeatureAPIAccess:         "API access",
	FeatureTeamCollaboration: "Team collaboration",
	FeaturePrioritySupport:   "Priority support",
	FeatureWhiteLabel:        "White-label branding",
	FeatureAdvancedAnalytics: "Advanced analytics",
	FeatureRealTimeBooking:   "Real-time booking",
}

func limitNoun(name LimitName) string {
	if noun, ok := limitNouns[name]; ok {
		return noun
	}
	return strings.ReplaceAll(strings.TrimSuffix(string(name), "_per_month"), "_", " ")
}

// FeatureLabel returns a human-readable feature name.
func FeatureLabel(f Feature) string {
	if label, ok := featureLabels[f]; ok {
		return label
	}
	return strings.ReplaceAll(string(f), "_", " ")
}

// LimitReachedMessage explains that the quota for name is exhausted and names
// the first higher plan that relaxes it. Empty for unlimited quotas.
func (r *Resolver) LimitReachedMessage(name LimitName) string {
	limit := r.GetLimit(name)
	if limit == Unlimited {
		return ""
	}

	p := message.NewPrinter(r.lang)
	current := r.effectivePlan()
	noun := limitNoun(name)

	var b strings.Builder
	if strings.HasSuffix(string(name), "_per_month") {
		b.WriteString(p.Sprintf("You've reached your monthly limit of %d %s on the %s plan.", limit, noun, r.catalog.Info(current).Name))
	} else {
		b.WriteString(p.Sprintf("You've reached the limit of %d %s on the %s plan.", limit, noun, r.catalog.Info(current).Name))
	}

	for _, candidate := range current.Higher() {
		next, ok := r.catalog.Limit(candidate, name)
		if !ok || !moreGenerous(next, limit) {
			continue
		}
		planName := r.catalog.Info(candidate).Name
		if next == Unlimited {
			b.WriteString(p.Sprintf(" Upgrade to %s for unlimited %s.", planName, noun))
		} else {
			b.WriteString(p.Sprintf(" Upgrade to %s for up to %d %s.", planName, next, noun))
		}
		return b.String()
	}

	b.WriteString(" Contact support to raise this limit.")
	return b.String()
}

// FeatureLockedMessage explains which plan unlocks f. Empty when the current
// plan already has it.
func (r *Resolver) FeatureLockedMessage(f Feature) string {
	if r.HasFeature(f) {
		return ""
	}
	p := message.NewPrinter(r.lang)
	target, ok := r.MinimumPlanForFeature(f)
	if !ok {
		return p.Sprintf("%s is not available on any plan.", FeatureLabel(f))
	}
	return p.Sprintf("%s is available on the %s plan and above.", FeatureLabel(f), r.catalog.Info(target).Name)
}

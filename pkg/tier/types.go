package tier

// Feature is a boolean capability gated by plan.
type Feature string

const (
	FeatureAIItinerary       Feature = "ai_itinerary_generation"
	FeaturePDFExport         Feature = "pdf_export"
	FeatureCustomBranding    Feature = "custom_branding"
	FeatureClientCRM         Feature = "client_crm"
	FeatureHubSpotSync       Feature = "hubspot_sync"
	FeatureAPIAccess         Feature = "api_access"
	FeatureTeamCollaboration Feature = "team_collaboration"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureWhiteLabel        Feature = "white_label"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeatureRealTimeBooking   Feature = "real_time_booking"
)

// KnownFeatures lists every feature the default catalog defines.
func KnownFeatures() []Feature {
	return []Feature{
		FeatureAIItinerary,
		FeaturePDFExport,
		FeatureCustomBranding,
		FeatureClientCRM,
		FeatureHubSpotSync,
		FeatureAPIAccess,
		FeatureTeamCollaboration,
		FeaturePrioritySupport,
		FeatureWhiteLabel,
		FeatureAdvancedAnalytics,
		FeatureRealTimeBooking,
	}
}

// LimitName identifies a numeric quota.
type LimitName string

const (
	LimitItinerariesPerMonth  LimitName = "itineraries_per_month"
	LimitPDFDownloadsPerMonth LimitName = "pdf_downloads_per_month"
	LimitAPICallsPerMonth     LimitName = "api_calls_per_month"
	LimitTeamMembers          LimitName = "team_members"
	LimitClients              LimitName = "clients"
)

// KnownLimits lists every limit the default catalog defines.
func KnownLimits() []LimitName {
	return []LimitName{
		LimitItinerariesPerMonth,
		LimitPDFDownloadsPerMonth,
		LimitAPICallsPerMonth,
		LimitTeamMembers,
		LimitClients,
	}
}

// Unlimited marks a limit without a ceiling.
const Unlimited int64 = -1

// UsageKind is a counter tracked per account per calendar month.
type UsageKind string

const (
	UsageItineraries  UsageKind = "itineraries"
	UsagePDFDownloads UsageKind = "pdf_downloads"
	UsageAPICalls     UsageKind = "api_calls"
)

// UsageKinds returns all monthly counters.
func UsageKinds() []UsageKind {
	return []UsageKind{UsageItineraries, UsagePDFDownloads, UsageAPICalls}
}

// LimitName returns the monthly quota that governs the counter.
func (k UsageKind) LimitName() LimitName {
	return LimitName(string(k) + "_per_month")
}

// Valid reports whether k is one of the tracked counters.
func (k UsageKind) Valid() bool {
	switch k {
	case UsageItineraries, UsagePDFDownloads, UsageAPICalls:
		return true
	}
	return false
}

// ParseUsageKind converts a raw string into a UsageKind.
func ParseUsageKind(s string) (UsageKind, error) {
	k := UsageKind(s)
	if !k.Valid() {
		return "", ErrUnknownUsageKind
	}
	return k, nil
}

package tier

// DefaultFeatures is the product feature matrix.
func DefaultFeatures() FeatureTable {
	return FeatureTable{
		PlanStarter: {
			FeatureAIItinerary:       true,
			FeaturePDFExport:         true,
			FeatureCustomBranding:    false,
			FeatureClientCRM:         true,
			FeatureHubSpotSync:       false,
			FeatureAPIAccess:         false,
			FeatureTeamCollaboration: false,
			FeaturePrioritySupport:   false,
			FeatureWhiteLabel:        false,
			FeatureAdvancedAnalytics: false,
			FeatureRealTimeBooking:   false,
		},
		PlanProfessional: {
			FeatureAIItinerary:       true,
			FeaturePDFExport:         true,
			FeatureCustomBranding:    true,
			FeatureClientCRM:         true,
			FeatureHubSpotSync:       true,
			FeatureAPIAccess:         true,
			FeatureTeamCollaboration: true,
			FeaturePrioritySupport:   false,
			FeatureWhiteLabel:        false,
			FeatureAdvancedAnalytics: true,
			FeatureRealTimeBooking:   false,
		},
		PlanEnterprise: {
			FeatureAIItinerary:       true,
			FeaturePDFExport:         true,
			FeatureCustomBranding:    true,
			FeatureClientCRM:         true,
			FeatureHubSpotSync:       true,
			FeatureAPIAccess:         true,
			FeatureTeamCollaboration: true,
			FeaturePrioritySupport:   true,
			FeatureWhiteLabel:        true,
			FeatureAdvancedAnalytics: true,
			FeatureRealTimeBooking:   true,
		},
	}
}

// DefaultLimits is the product quota matrix.
func DefaultLimits() LimitTable {
	return LimitTable{
		PlanStarter: {
			LimitItinerariesPerMonth:  5,
			LimitPDFDownloadsPerMonth: 10,
			LimitAPICallsPerMonth:     0,
			LimitTeamMembers:          1,
			LimitClients:              50,
		},
		PlanProfessional: {
			LimitItinerariesPerMonth:  Unlimited,
			LimitPDFDownloadsPerMonth: 100,
			LimitAPICallsPerMonth:     1000,
			LimitTeamMembers:          5,
			LimitClients:              500,
		},
		PlanEnterprise: {
			LimitItinerariesPerMonth:  Unlimited,
			LimitPDFDownloadsPerMonth: Unlimited,
			LimitAPICallsPerMonth:     Unlimited,
			LimitTeamMembers:          Unlimited,
			LimitClients:              Unlimited,
		},
	}
}

// DefaultCatalog returns the catalog shipped with the product.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultFeatures(), DefaultLimits(),
		WithPlanInfo(PlanStarter, PlanInfo{
			Name:         "Starter",
			Description:  "For independent agents getting started",
			PriceCents:   0,
			Currency:     "USD",
			UpgradeBlurb: "Upgrade to Professional for unlimited itineraries and HubSpot sync.",
		}),
		WithPlanInfo(PlanProfessional, PlanInfo{
			Name:         "Professional",
			Description:  "For growing agencies",
			PriceCents:   4900,
			Currency:     "USD",
			UpgradeBlurb: "Upgrade to Enterprise for white-label branding and real-time booking.",
		}),
		WithPlanInfo(PlanEnterprise, PlanInfo{
			Name:        "Enterprise",
			Description: "For agencies with teams and integrations",
			PriceCents:  19900,
			Currency:    "USD",
		}),
	)
}

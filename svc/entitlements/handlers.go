package entitlements

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripcraft/tierkit/pkg/logger"
	"github.com/tripcraft/tierkit/pkg/tier"
)

type errorResponse struct {
	Error string `json:"error"`
}

type featureResponse struct {
	Feature     tier.Feature `json:"feature"`
	Label       string       `json:"label"`
	Enabled     bool         `json:"enabled"`
	MinimumPlan tier.Plan    `json:"minimum_plan,omitempty"`
	UpgradePath []tier.Plan  `json:"upgrade_path"`
	Message     string       `json:"message,omitempty"`
}

type usageResponse struct {
	Allowed bool             `json:"allowed"`
	Kind    tier.UsageKind   `json:"kind"`
	Limit   int64            `json:"limit"`
	Usage   tier.UsageRecord `json:"usage"`
	Message string           `json:"message,omitempty"`
}

type suggestionsResponse struct {
	Plan        tier.Plan   `json:"plan"`
	Month       string      `json:"month"`
	Suggestions []tier.Plan `json:"suggestions"`
}

type changePlanRequest struct {
	Plan string `json:"plan"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Service) getEntitlements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, resolverFromRequest(r).Snapshot(r.Context()))
}

func (s *Service) getFeature(w http.ResponseWriter, r *http.Request) {
	res := resolverFromRequest(r)
	f := tier.Feature(chi.URLParam(r, "feature"))

	resp := featureResponse{
		Feature:     f,
		Label:       tier.FeatureLabel(f),
		Enabled:     res.HasFeature(f),
		UpgradePath: res.UpgradePathForFeature(f),
	}
	if p, ok := res.MinimumPlanForFeature(f); ok {
		resp.MinimumPlan = p
	}
	if !resp.Enabled {
		resp.Message = res.FeatureLockedMessage(f)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) getUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, resolverFromRequest(r).Usage(r.Context()))
}

// recordUsage answers 200 when the unit was recorded, 402 when the quota is
// exhausted and 503 when the store rejected a write the quota would allow.
func (s *Service) recordUsage(w http.ResponseWriter, r *http.Request) {
	kind, err := tier.ParseUsageKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	res := resolverFromRequest(r)
	limitName := kind.LimitName()

	allowed := res.IncrementUsage(ctx, kind)
	usage := res.Usage(ctx)
	resp := usageResponse{
		Allowed: allowed,
		Kind:    kind,
		Limit:   res.GetLimit(limitName),
		Usage:   usage,
	}
	if allowed {
		s.metrics.recordUsage(kind, resultAllowed)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if res.CanPerformAction(limitName, usage.Count(kind)) {
		s.metrics.recordUsage(kind, resultStoreError)
		s.log.WarnContext(ctx, "usage increment failed below limit", logger.Limit(string(limitName)))
		writeError(w, http.StatusServiceUnavailable, ErrUsageUnavailable.Error())
		return
	}
	s.metrics.recordUsage(kind, resultLimitReached)
	resp.Message = res.LimitReachedMessage(limitName)
	writeJSON(w, http.StatusPaymentRequired, resp)
}

func (s *Service) getUpgradeSuggestions(w http.ResponseWriter, r *http.Request) {
	res := resolverFromRequest(r)
	usage := res.Usage(r.Context())
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Plan:        res.CurrentPlan(),
		Month:       usage.Month,
		Suggestions: res.GetUpgradeSuggestions(usage.ByLimit()),
	})
}

func (s *Service) changePlan(w http.ResponseWriter, r *http.Request) {
	var req changePlanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequestBody.Error())
		return
	}
	plan, err := tier.ParsePlan(req.Plan)
	if err != nil {
		s.metrics.recordPlanChange("invalid", resultRejected)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	res := resolverFromRequest(r)
	account := accountFromContext(ctx)

	if err := res.CanDowngrade(ctx, plan); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, tier.ErrDowngradeNotPossible) {
			status = http.StatusConflict
		}
		s.metrics.recordPlanChange(string(plan), resultRejected)
		writeError(w, status, err.Error())
		return
	}
	if !res.UpdateSubscription(ctx, account, plan) {
		s.metrics.recordPlanChange(string(plan), resultStoreError)
		writeError(w, http.StatusBadGateway, ErrStoreUnavailable.Error())
		return
	}
	s.metrics.recordPlanChange(string(plan), resultOK)
	writeJSON(w, http.StatusOK, res.Snapshot(ctx))
}

func (s *Service) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := resolverFromRequest(r)
	account := accountFromContext(ctx)

	if !res.CancelSubscription(ctx, account) {
		s.metrics.recordCancel(resultStoreError)
		writeError(w, http.StatusBadGateway, ErrStoreUnavailable.Error())
		return
	}
	s.metrics.recordCancel(resultOK)
	// An immediate cancel leaves no active row; the next request starts a
	// fresh lowest-tier session.
	if res.Subscription() == nil {
		s.sessions.Invalidate(account)
	}
	writeJSON(w, http.StatusOK, res.Snapshot(ctx))
}

package console

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rfpdesk/rfpdesk/internal/billing"
)

// PlanForm holds the raw plan form fields as typed by the admin.
type PlanForm struct {
	Name             string
	Price            string
	Interval         string
	CreditsIncluded  string
	APIQuotaPerMonth string
	Popular          bool
}

// ParsePlanFields converts form strings into a plan payload. Blank numeric
// fields mean "not set" (price: 0), negative numbers are clamped to 0 and
// anything non-numeric is a ValidationError.
func ParsePlanFields(form PlanForm) (billing.PlanInput, error) {
	in := billing.PlanInput{
		Name:     strings.TrimSpace(form.Name),
		Interval: strings.TrimSpace(form.Interval),
		Popular:  form.Popular,
	}
	if in.Interval == "" {
		in.Interval = billing.IntervalMonth
	}
	if in.Interval != billing.IntervalMonth && in.Interval != billing.IntervalYear {
		return billing.PlanInput{}, &ValidationError{Field: "interval", Message: "Interval must be month or year"}
	}

	if price := strings.TrimSpace(form.Price); price != "" {
		v, err := strconv.ParseFloat(price, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return billing.PlanInput{}, &ValidationError{Field: "price", Message: "Price must be a number"}
		}
		in.Price = math.Max(v, 0)
	}

	var err error
	if in.CreditsIncluded, err = optionalCount("creditsIncluded", form.CreditsIncluded); err != nil {
		return billing.PlanInput{}, err
	}
	if in.APIQuotaPerMonth, err = optionalCount("apiQuotaPerMonth", form.APIQuotaPerMonth); err != nil {
		return billing.PlanInput{}, err
	}
	return in, nil
}

func optionalCount(field, raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: field + " must be a whole number"}
	}
	v = max(v, 0)
	return &v, nil
}

// PlanManager manages billing plans and plan assignment.
type PlanManager struct {
	deps
}

// List returns all plans.
func (m *PlanManager) List(ctx context.Context) ([]billing.Plan, error) {
	plans, err := query(ctx, m.cache, KeyPlans, func(ctx context.Context) ([]billing.Plan, error) {
		var out struct {
			Plans []billing.Plan `json:"plans"`
		}
		err := m.client.do(ctx, http.MethodGet, pathPlans, nil, &out)
		return out.Plans, err
	})
	if err != nil {
		return nil, m.report("Could not load plans", err)
	}
	return plans, nil
}

// CreatePlan validates and creates a plan.
func (m *PlanManager) CreatePlan(ctx context.Context, form PlanForm) (billing.Plan, error) {
	return m.savePlan(ctx, "plan.create", http.MethodPost, pathPlans, form)
}

// UpdatePlan validates and updates plan id.
func (m *PlanManager) UpdatePlan(ctx context.Context, id string, form PlanForm) (billing.Plan, error) {
	return m.savePlan(ctx, "plan.save:"+id, http.MethodPatch, pathPlans+"/"+url.PathEscape(id), form)
}

func (m *PlanManager) savePlan(ctx context.Context, action, method, path string, form PlanForm) (billing.Plan, error) {
	in, err := ParsePlanFields(form)
	if err != nil {
		return billing.Plan{}, m.report("Plan not saved", err)
	}
	if in.Name == "" {
		return billing.Plan{}, m.report("Plan not saved", &ValidationError{Field: "name", Message: "Plan name is required"})
	}
	var plan billing.Plan
	err = m.pending.Run(action, func() error {
		return m.client.do(ctx, method, path, in, &plan)
	})
	if err != nil {
		return billing.Plan{}, m.report("Plan not saved", err)
	}
	m.cache.Invalidate(KeyPlans)
	m.toaster.Toast(Toast{Title: "Plan saved", Description: plan.Name})
	return plan, nil
}

// DeletePlan deletes plan id once confirm returns true.
func (m *PlanManager) DeletePlan(ctx context.Context, id string, confirm Confirm) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}
	err := m.pending.Run("plan.delete:"+id, func() error {
		return m.client.do(ctx, http.MethodDelete, pathPlans+"/"+url.PathEscape(id), nil, nil)
	})
	if err != nil {
		return false, m.report("Plan not deleted", err)
	}
	m.cache.Invalidate(KeyPlans)
	m.toaster.Toast(Toast{Title: "Plan deleted"})
	return true, nil
}

// AssignPlan moves a user onto a plan. Both ids come straight from the
// selection controls; blank or non-numeric user ids never reach the server.
// On success it invalidates the plan list, the user's credit view, the user
// list and the notification feed.
func (m *PlanManager) AssignPlan(ctx context.Context, userID, planID string) (billing.AssignResult, error) {
	userID, planID = strings.TrimSpace(userID), strings.TrimSpace(planID)
	if userID == "" || planID == "" {
		return billing.AssignResult{}, m.report("Plan not assigned",
			&ValidationError{Message: "Select both a user and a plan"})
	}
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || uid <= 0 {
		return billing.AssignResult{}, m.report("Plan not assigned",
			&ValidationError{Field: "userId", Message: "Select a valid user"})
	}

	// One key per admin action; the server rejects a replay of the same key.
	header := http.Header{}
	header.Set(idempotencyHeader, uuid.NewString())
	var result billing.AssignResult
	err = m.pending.Run("plan.assign", func() error {
		return m.client.doWithHeader(ctx, http.MethodPost, pathAssign, header,
			billing.Assignment{UserID: uid, PlanID: planID}, &result)
	})
	if err != nil {
		return billing.AssignResult{}, m.report("Plan not assigned", err)
	}
	m.cache.Invalidate(KeyPlans, UserCreditsKey(uid), KeyUsers, KeyNotifications)
	m.toaster.Toast(Toast{Title: "Plan assigned", Description: result.Message})
	return result, nil
}

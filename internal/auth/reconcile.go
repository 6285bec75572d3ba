package auth

import (
	"context"
	"errors"
)

// StaleUser identifies an account whose role neither the registry nor the
// legacy table can resolve.
type StaleUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ReconcileReport summarizes one reconcile pass.
type ReconcileReport struct {
	Checked    int         `json:"checked"`
	Stale      []StaleUser `json:"stale"`
	Reassigned int         `json:"reassigned"`
}

// Reconcile walks all users and reports those referencing a role that no
// longer resolves, the consistency gap left by the weak user->role
// reference. With apply set, stale users are reassigned to the guest role;
// otherwise the pass only reports.
func (r *Registry) Reconcile(ctx context.Context, resolver *Resolver, apply bool) (*ReconcileReport, error) {
	if resolver == nil {
		return nil, errors.New("auth: resolver is required")
	}
	users, err := r.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{Stale: []StaleUser{}}
	known := make(map[string]bool)
	for _, u := range users {
		report.Checked++
		ok, cached := known[u.Role]
		if !cached {
			ok, err = resolver.Known(ctx, u.Role)
			if err != nil {
				return nil, err
			}
			known[u.Role] = ok
		}
		if ok {
			continue
		}
		report.Stale = append(report.Stale, StaleUser{UserID: u.ID, Email: u.Email, Role: u.Role})
		if !apply {
			continue
		}
		fallback := RoleGuest
		if _, err := r.store.Users().Update(ctx, u.ID, UserUpdate{Role: &fallback}); err != nil {
			return nil, err
		}
		report.Reassigned++
	}
	return report, nil
}

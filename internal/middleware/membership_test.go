package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"samudaya.club/internal/models"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembershipChecker struct {
	um   *models.UserMembership
	tier *models.Membership
	err  error
}

func (f *fakeMembershipChecker) GetActiveUserMembership(_ context.Context, _ int64) (*models.UserMembership, *models.Membership, error) {
	return f.um, f.tier, f.err
}

func runMembershipMiddleware(t *testing.T, checker *fakeMembershipChecker, target string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	sm := scs.New()

	var nextCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireActiveMembership(sm, checker)(next)

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), UserIDContextKey, int64(7))
		protected.ServeHTTP(w, r.WithContext(ctx))
	}))

	r := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code == http.StatusOK {
		require.True(t, nextCalled)
	}
	return w
}

func TestRequireActiveMembershipAllows(t *testing.T) {
	checker := &fakeMembershipChecker{
		um:   &models.UserMembership{ID: "um_1", UserID: 7, IsActive: true, EndDate: time.Now().AddDate(0, 6, 0)},
		tier: &models.Membership{ID: "mem_gold", Tier: models.TierGold},
	}
	w := runMembershipMiddleware(t, checker, "/members-lounge", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireActiveMembershipRedirectsPages(t *testing.T) {
	w := runMembershipMiddleware(t, &fakeMembershipChecker{}, "/members-lounge", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/memberships", w.Header().Get("Location"))
}

func TestRequireActiveMembershipForbidsAPI(t *testing.T) {
	w := runMembershipMiddleware(t, &fakeMembershipChecker{}, "/api/lounge/data", "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

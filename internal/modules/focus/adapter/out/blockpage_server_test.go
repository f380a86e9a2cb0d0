package out_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "focuslock/internal/modules/focus/adapter/out"
	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/modules/focus/dto"
)

type fakeBlockPageHandler struct {
	rules  []domain.Rule
	status dto.StatusOutput
}

func (h fakeBlockPageHandler) MatchNavigation(_ context.Context, rawURL string) (domain.Rule, bool, error) {
	for _, rule := range h.rules {
		if rule.Matches(rawURL, domain.ScopeMainFrame) {
			return rule, true, nil
		}
	}
	return domain.Rule{}, false, nil
}

func (h fakeBlockPageHandler) Status(context.Context) (dto.StatusOutput, error) {
	return h.status, nil
}

func newBlockPageHandler() fakeBlockPageHandler {
	return fakeBlockPageHandler{
		rules: domain.BuildRules([]string{"reddit.com"}, "/blocked"),
		status: dto.StatusOutput{
			Active:    true,
			SessionID: "session-1",
			Sites:     []string{"reddit.com"},
			Remaining: 12*time.Minute + 3*time.Second,
		},
	}
}

func TestBlockPageCheckRedirectsMatchedNavigation(t *testing.T) {
	t.Parallel()
	router := out.NewBlockPageRouter(newBlockPageHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check?url=https%3A%2F%2Freddit.com%2Fr%2Fgolang", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/blocked?site=reddit.com", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check?url=https%3A%2F%2Fgo.dev", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockPageRendersSite(t *testing.T) {
	t.Parallel()
	router := out.NewBlockPageRouter(newBlockPageHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blocked?site=reddit.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>reddit.com</strong>")
	assert.Contains(t, rec.Body.String(), "12m3s left.")
}

func TestBlockPageStatusJSON(t *testing.T) {
	t.Parallel()
	router := out.NewBlockPageRouter(newBlockPageHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "session-1", body["session_id"])
	assert.EqualValues(t, (12*time.Minute + 3*time.Second).Milliseconds(), body["remaining_ms"])
}

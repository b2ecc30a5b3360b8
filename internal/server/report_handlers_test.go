package server

import (
	"net/http"
	"testing"

	"liberty/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReport(t *testing.T) {
	s, app := newTestServer(t)
	reporter := createUser(t, s, "reporter", models.GlobalRoleCivilian)

	t.Run("files a pending report", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/reports", bearer(t, s, reporter), map[string]string{
			"target_type": "user",
			"target_id":   "99",
			"reason":      "Harassment in replies",
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var report models.Report
		decodeBody(t, resp, &report)
		assert.Equal(t, models.ReportStatusPending, report.Status)
		assert.Equal(t, reporter.ID, report.ReporterID)
		assert.Equal(t, "99", report.TargetID)
	})

	t.Run("rejects unknown target type", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/reports", bearer(t, s, reporter), map[string]string{
			"target_type": "stream",
			"target_id":   "1",
			"reason":      "spam",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/reports", "", map[string]string{
			"target_type": "user",
			"target_id":   "99",
			"reason":      "spam",
		})
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGetReports_StaffOnly(t *testing.T) {
	s, app := newTestServer(t)
	civilian := createUser(t, s, "civvy", models.GlobalRoleCivilian)
	mod := createUser(t, s, "modone", models.GlobalRoleModerator)

	resp := doRequest(t, app, http.MethodPost, "/api/reports", bearer(t, s, civilian), map[string]string{
		"target_type": "user",
		"target_id":   "5",
		"reason":      "impersonation",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	t.Run("civilian is refused", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/admin/reports", bearer(t, s, civilian), nil)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("moderator sees the pending queue", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/admin/reports", bearer(t, s, mod), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var reports []models.Report
		decodeBody(t, resp, &reports)
		require.Len(t, reports, 1)
		assert.Equal(t, models.ReportStatusPending, reports[0].Status)
	})
}

func TestReportLifecycle(t *testing.T) {
	s, app := newTestServer(t)
	reporter := createUser(t, s, "filer", models.GlobalRoleCivilian)
	mod := createUser(t, s, "reviewer", models.GlobalRoleModerator)

	resp := doRequest(t, app, http.MethodPost, "/api/reports", bearer(t, s, reporter), map[string]string{
		"target_type": "user",
		"target_id":   "7",
		"reason":      "abusive profile",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var report models.Report
	decodeBody(t, resp, &report)

	t.Run("inspect returns report with snapshot", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet,
			"/api/admin/reports/"+itoa(report.ID), bearer(t, s, mod), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Report   models.Report         `json:"report"`
			Snapshot models.ReportSnapshot `json:"snapshot"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, report.ID, body.Report.ID)
		// Target user 7 does not exist, so the snapshot is a tombstone.
		assert.False(t, body.Snapshot.Found)
	})

	t.Run("resolve marks the report and records the reviewer", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost,
			"/api/admin/reports/"+itoa(report.ID)+"/resolve", bearer(t, s, mod), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var resolved models.Report
		decodeBody(t, resp, &resolved)
		assert.Equal(t, models.ReportStatusResolved, resolved.Status)
		require.NotNil(t, resolved.ResolvedByUserID)
		assert.Equal(t, mod.ID, *resolved.ResolvedByUserID)
		assert.NotNil(t, resolved.ResolvedAt)
	})

	t.Run("dismiss after resolve keeps the first disposition", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost,
			"/api/admin/reports/"+itoa(report.ID)+"/dismiss", bearer(t, s, mod), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var after models.Report
		decodeBody(t, resp, &after)
		assert.Equal(t, models.ReportStatusResolved, after.Status)
	})

	t.Run("unknown report id is 404", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost,
			"/api/admin/reports/9999/resolve", bearer(t, s, mod), nil)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

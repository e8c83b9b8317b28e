package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	adservice "github.com/finovia/adfin/internal/adaccount/service"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	auditservice "github.com/finovia/adfin/internal/audit/service"
	commissiondomain "github.com/finovia/adfin/internal/commission/domain"
	commissionrepo "github.com/finovia/adfin/internal/commission/repository"
	commissionservice "github.com/finovia/adfin/internal/commission/service"
	"github.com/finovia/adfin/internal/config"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	feeruleservice "github.com/finovia/adfin/internal/feerule/service"
	obsmetrics "github.com/finovia/adfin/internal/observability/metrics"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
	refundservice "github.com/finovia/adfin/internal/refund/service"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	walletservice "github.com/finovia/adfin/internal/wallet/service"
	"github.com/finovia/adfin/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *snowflake.Node) {
	t.Helper()
	srv, node, _ := newTestServerWithMetrics(t)
	return srv, node
}

func newTestServerWithMetrics(t *testing.T) (*Server, *snowflake.Node, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&feeruledomain.FeeRule{},
		&refunddomain.Refund{},
		&addomain.Application{},
		&addomain.Deposit{},
		&walletdomain.TopUp{},
		&commissiondomain.Record{},
		&commissiondomain.Payment{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{DB: conn, Log: log, GenID: node})
	feeRuleSvc := feeruleservice.NewService(feeruleservice.Params{DB: conn, Log: log, GenID: node})
	refundSvc := refundservice.NewService(refundservice.Params{
		DB: conn, Log: log, GenID: node, FeeRuleSvc: feeRuleSvc, AuditSvc: auditSvc,
	})
	adAccountSvc := adservice.NewService(adservice.Params{
		DB: conn, Log: log, GenID: node, FeeRuleSvc: feeRuleSvc, AuditSvc: auditSvc,
	})
	walletSvc := walletservice.NewService(walletservice.Params{
		DB: conn, Log: log, GenID: node, AuditSvc: auditSvc,
	})
	commissionSvc := commissionservice.NewService(commissionservice.Params{
		DB: conn, Log: log, GenID: node,
		Repo: commissionrepo.Provide(), FeeRuleSvc: feeRuleSvc, AuditSvc: auditSvc,
	})

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := obsmetrics.New(obsmetrics.Config{ServiceName: "adfin"}, provider)
	require.NoError(t, err)

	srv := NewServer(ServerParams{
		Gin:           NewEngine(log),
		Cfg:           config.Config{AppName: "adfin", Environment: "test"},
		GenID:         node,
		FeeRuleSvc:    feeRuleSvc,
		RefundSvc:     refundSvc,
		AdAccountSvc:  adAccountSvc,
		WalletSvc:     walletSvc,
		CommissionSvc: commissionSvc,
		AuditSvc:      auditSvc,
		ObsMetrics:    metrics,
	})
	srv.RegisterAPIRoutes()
	return srv, node, reader
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, userID snowflake.ID, role string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-Id", userID.String())
		req.Header.Set("X-User-Role", role)
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "decode response %q", rec.Body.String())
	return out
}

func TestPrincipalRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/refunds", nil, 0, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGateRejectsUser(t *testing.T) {
	srv, node := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/fee-rules", nil, node.Generate(), "user")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCommissionPayFlow(t *testing.T) {
	srv, node := newTestServer(t)
	admin := node.Generate()
	agent := node.Generate()

	rec := doJSON(t, srv, http.MethodPut, "/api/fee-rules", map[string]any{
		"platform":           "facebook",
		"commission_percent": 50,
	}, admin, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPut, "/api/commissions", map[string]any{
		"agent_id":    agent.String(),
		"month":       6,
		"year":        2026,
		"platform":    "facebook",
		"base_amount": 1000,
	}, admin, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record := decodeBody(t, rec)["record"].(map[string]any)
	recordID := record["id"].(string)
	assert.Equal(t, 500.0, record["calculated_commission"])

	payPath := "/api/commissions/" + recordID + "/payments"
	rec = doJSON(t, srv, http.MethodPost, payPath, map[string]any{"amount": 200}, admin, "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doJSON(t, srv, http.MethodPost, payPath, map[string]any{"amount": 150}, admin, "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/commissions/"+recordID, nil, agent, "agent")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	settlementBody := decodeBody(t, rec)["settlement"].(map[string]any)
	assert.Equal(t, "partially_settled", settlementBody["state"])
	assert.Equal(t, 350.0, settlementBody["paid_amount"])

	// Overpay comes back as a conflict, not a validation error.
	rec = doJSON(t, srv, http.MethodPost, payPath, map[string]any{"amount": 200}, admin, "admin")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// Another agent cannot read this record.
	rec = doJSON(t, srv, http.MethodGet, "/api/commissions/"+recordID, nil, node.Generate(), "agent")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefundCreateAndReview(t *testing.T) {
	srv, node := newTestServer(t)
	admin := node.Generate()
	user := node.Generate()

	rec := doJSON(t, srv, http.MethodPut, "/api/fee-rules", map[string]any{
		"platform":           "google",
		"commission_percent": 12.5,
	}, admin, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/refunds", map[string]any{
		"ad_account_id":    node.Generate().String(),
		"platform":         "google",
		"requested_amount": 200,
		"reason":           "campaign ended",
	}, user, "user")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	refund := decodeBody(t, rec)["refund"].(map[string]any)
	refundID := refund["id"].(string)
	assert.Equal(t, 25.0, refund["fees_amount"])

	// Admin doubles the amount; the fee follows the original 12.5 rate.
	rec = doJSON(t, srv, http.MethodPatch, "/api/refunds/"+refundID, map[string]any{
		"status":           "approved",
		"requested_amount": 400,
	}, admin, "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)["refund"].(map[string]any)
	assert.Equal(t, 50.0, updated["fees_amount"])

	// A second review hits the decided record and conflicts.
	rec = doJSON(t, srv, http.MethodPatch, "/api/refunds/"+refundID, map[string]any{
		"status": "rejected",
	}, admin, "admin")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// The user only sees their own refunds.
	rec = doJSON(t, srv, http.MethodGet, "/api/refunds", nil, node.Generate(), "user")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["refunds"])
}

func TestHTTPMetricsCountRequestsByRoute(t *testing.T) {
	srv, node, reader := newTestServerWithMetrics(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/refunds", nil, node.Generate(), "user")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodGet, "/api/refunds", nil, 0, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	statusCodes := map[string]struct{}{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "adfin_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				endpoint, _ := dp.Attributes.Value(attribute.Key("endpoint"))
				assert.Equal(t, "/api/refunds", endpoint.AsString())
				code, _ := dp.Attributes.Value(attribute.Key("status_code"))
				statusCodes[code.AsString()] = struct{}{}
				total += dp.Value
			}
		}
	}
	assert.EqualValues(t, 2, total)
	assert.Contains(t, statusCodes, "200")
	assert.Contains(t, statusCodes, "401")
}

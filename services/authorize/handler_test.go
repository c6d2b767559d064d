package authorize

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotspot-voucherd/services/voucher"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := newTestEnv(t)
	e := gin.New()
	RegisterRoutes(e, NewHandler(env.svc))
	return e, env
}

func postAuth(t *testing.T, e *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/auth", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleAuthMissingFields(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := postAuth(t, e, map[string]interface{}{"router_id": testRouterID, "mac": testMAC})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(0), body["allow"])
	require.Equal(t, "missing", body["reason"])
}

func TestHandleAuthBadMAC(t *testing.T) {
	e, env := newTestRouter(t)

	rec := postAuth(t, e, map[string]interface{}{
		"router_id": testRouterID,
		"mac":       "not-a-mac",
		"voucher":   "CODE2345",
		"ts":        env.nowUnix,
		"nonce":     "n-1",
		"sig":       "00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "mac", decode(t, rec)["reason"])
}

func TestHandleAuthNormalizesCase(t *testing.T) {
	e, env := newTestRouter(t)
	env.addVoucher(voucher.Voucher{Code: "CODE2345", DurationSeconds: 3600})

	// The signature covers the normalized fields, so a client that signs
	// lowercase MAC and uppercase code may still send them in mixed case.
	in := env.signedInput(testMAC, "CODE2345", "n-1")
	rec := postAuth(t, e, map[string]interface{}{
		"router_id": in.RouterID,
		"mac":       "AA:BB:CC:DD:EE:FF",
		"voucher":   "code2345",
		"ts":        in.TS,
		"nonce":     in.Nonce,
		"sig":       in.Sig,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(1), body["allow"])
	require.Equal(t, float64(3600), body["remaining"])
}

func TestHandleAuthAllowShape(t *testing.T) {
	e, env := newTestRouter(t)
	env.addVoucher(voucher.Voucher{
		Code:            "CODE2345",
		DurationSeconds: 3600,
		QuotaUpBytes:    512,
		QuotaDownBytes:  2048,
	})

	in := env.signedInput(testMAC, "CODE2345", "n-1")
	rec := postAuth(t, e, map[string]interface{}{
		"router_id": in.RouterID,
		"mac":       in.MAC,
		"voucher":   in.Voucher,
		"ts":        in.TS,
		"nonce":     in.Nonce,
		"sig":       in.Sig,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(1), body["allow"])
	require.Equal(t, float64(512), body["up"])
	require.Equal(t, float64(2048), body["down"])
	require.NotContains(t, body, "reason")
}

func TestHandleAuthDenyStatusCodes(t *testing.T) {
	e, env := newTestRouter(t)
	env.addVoucher(voucher.Voucher{Code: "CODE2345", DurationSeconds: 3600})

	in := env.signedInput(testMAC, "CODE2345", "n-1")
	payload := map[string]interface{}{
		"router_id": in.RouterID,
		"mac":       in.MAC,
		"voucher":   in.Voucher,
		"ts":        in.TS,
		"nonce":     in.Nonce,
		"sig":       in.Sig,
	}
	require.Equal(t, http.StatusOK, postAuth(t, e, payload).Code)

	rec := postAuth(t, e, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "replay", decode(t, rec)["reason"])
}

func TestHandleAuthRecordsEvents(t *testing.T) {
	e, env := newTestRouter(t)
	env.addVoucher(voucher.Voucher{Code: "CODE2345", DurationSeconds: 3600})

	in := env.signedInput(testMAC, "CODE2345", "n-1")
	postAuth(t, e, map[string]interface{}{
		"router_id": in.RouterID,
		"mac":       in.MAC,
		"voucher":   in.Voucher,
		"ts":        in.TS,
		"nonce":     in.Nonce,
		"sig":       in.Sig,
	})

	var events []AuthEvent
	require.NoError(t, env.db.Find(&events).Error)
	require.Len(t, events, 1)
	require.True(t, events[0].Allow)
	require.Equal(t, "CODE2345", events[0].VoucherCode)
}

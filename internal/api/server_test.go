package api

import (
	"io"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newTestServer() *Server {
	s := New(Options{IncludeFederal: true, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	s.newID = func() string { return "calc-1" }
	return s
}

func do(t *testing.T, h fasthttp.RequestHandler, method, path, body string) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != "" {
		ctx.Request.SetBodyString(body)
		ctx.Request.Header.SetContentType("application/json")
	}
	h(ctx)
	return ctx
}

func decodeBody[T any](t *testing.T, ctx *fasthttp.RequestCtx) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &v), string(ctx.Response.Body()))
	return v
}

func TestHealth(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "GET", "/healthz", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "ok\n", string(ctx.Response.Body()))
}

func TestTax_Oregon(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/tax", `{"estate":2500000,"jurisdiction":"oregon"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	resp := decodeBody[TaxResponse](t, ctx)
	assert.Equal(t, "calc-1", resp.CalculationID)
	assert.Equal(t, "OR", resp.Jurisdiction.Key)
	assert.InDelta(t, 152_500, resp.Tax, 0.01)
	assert.InDelta(t, 0.1025, resp.MarginalRate, 1e-9)
	require.NotNil(t, resp.Combined)
	assert.InDelta(t, 152_500, resp.Combined.State, 0.01)
	assert.Zero(t, resp.Combined.Federal)

	last := resp.Jurisdiction.Brackets[len(resp.Jurisdiction.Brackets)-1]
	assert.Nil(t, last.UpTo)
}

func TestTax_FederalOnlyHasNoCombined(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/tax", `{"estate":20000000,"jurisdiction":"FED"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	resp := decodeBody[TaxResponse](t, ctx)
	assert.InDelta(t, 2_000_000, resp.Tax, 0.01)
	assert.Nil(t, resp.Combined)
}

func TestTax_IncludeFederalOverride(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/tax", `{"estate":8000000,"jurisdiction":"NY","include_federal":false}`)
	resp := decodeBody[TaxResponse](t, ctx)
	assert.Nil(t, resp.Combined)
}

func TestTax_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "request body is required"},
		{"malformed", `{"estate":`, "invalid request body"},
		{"unknown field", `{"estate":1,"jurisdiction":"OR","extra":1}`, "invalid request body"},
		{"missing jurisdiction", `{"estate":1}`, "jurisdiction is required"},
		{"unknown jurisdiction", `{"estate":1,"jurisdiction":"Atlantis"}`, `unknown jurisdiction "Atlantis"`},
	}

	h := newTestServer().Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := do(t, h, "POST", "/v1/tax", tt.body)
			assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
			resp := decodeBody[ErrorResponse](t, ctx)
			assert.Equal(t, fasthttp.StatusBadRequest, resp.Status)
			assert.Contains(t, resp.Message, tt.want)
		})
	}
}

func TestTax_RoundsToCentsOnTheWire(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/tax", `{"estate":6940010.25,"jurisdiction":"NY"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	resp := decodeBody[TaxResponse](t, ctx)
	assert.Equal(t, 0.31, resp.Tax)
	require.NotNil(t, resp.Combined)
	assert.Equal(t, 0.31, resp.Combined.State)
	assert.Equal(t, 0.31, resp.Combined.Total)
}

func TestNegativeAmountsAreClamped(t *testing.T) {
	h := newTestServer().Handler()

	ctx := do(t, h, "POST", "/v1/tax", `{"estate":-1,"jurisdiction":"OR"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Zero(t, decodeBody[TaxResponse](t, ctx).Tax)

	ctx = do(t, h, "POST", "/v1/savings",
		`{"total":3000000,"debts":-500000,"jurisdiction":"OR","plan_type":"AB","qtip":-1}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	resp := decodeBody[SavingsResponse](t, ctx)
	assert.InDelta(t, 205_000, resp.Savings.TaxNoPlan, 0.01)
	assert.Zero(t, resp.Savings.QTIPAmount)
}

func TestSavings_AB(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/savings",
		`{"total":3000000,"debts":0,"jurisdiction":"OR","plan_type":"ab","qtip":0}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	resp := decodeBody[SavingsResponse](t, ctx)
	assert.Equal(t, "OR", resp.Jurisdiction)
	assert.Equal(t, "AB", resp.Savings.PlanType)
	assert.InDelta(t, 205_000, resp.Savings.TaxNoPlan, 0.01)
	assert.InDelta(t, 103_750, resp.Savings.Savings, 0.01)
	assert.InDelta(t, 1_000_000, resp.Funding.Bypass, 0.01)
}

func TestSavings_BadPlanType(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "POST", "/v1/savings",
		`{"total":3000000,"jurisdiction":"OR","plan_type":"XYZ"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, decodeBody[ErrorResponse](t, ctx).Message, "unknown plan type")
}

func TestRouting(t *testing.T) {
	h := newTestServer().Handler()

	ctx := do(t, h, "GET", "/v1/tax", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Equal(t, "POST", string(ctx.Response.Header.Peek("Allow")))

	ctx = do(t, h, "GET", "/nope", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestJurisdictions(t *testing.T) {
	ctx := do(t, newTestServer().Handler(), "GET", "/v1/jurisdictions", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	list := decodeBody[[]JurisdictionJSON](t, ctx)
	require.NotEmpty(t, list)
	assert.Equal(t, "FED", list[0].Key)
	assert.Equal(t, "flat", list[0].Kind)
}

func TestMetrics(t *testing.T) {
	h := newTestServer().Handler()
	do(t, h, "POST", "/v1/tax", `{"estate":2500000,"jurisdiction":"OR"}`)
	do(t, h, "POST", "/v1/tax", `{"estate":-5,"jurisdiction":"OR"}`)

	ctx := do(t, h, "GET", "/metrics", "")
	body := string(ctx.Response.Body())
	assert.Contains(t, body, `estateplan_api_requests_total{route="/v1/tax",status="200"} 1`)
	assert.Contains(t, body, `estateplan_api_requests_total{route="/v1/tax",status="400"} 1`)
	assert.Contains(t, body, "estateplan_api_calculation_duration_seconds_count")
}

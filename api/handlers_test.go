/*
handlers_test.go - HTTP tests for the billing API

Tests for:
- Staging, processing and fetching a charge version year
- Ad hoc computation
- Error statuses (400, 404)
- Demo scenarios and reset
- Metrics exposition
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEFRA/water-abstraction-service-sub002/api"
	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/metrics"
	"github.com/DEFRA/water-abstraction-service-sub002/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const overAbstractedInput = `{
  "chargeVersion": {"id": "cv-1", "licenceRef": "01/123", "startDate": "2018-04-01"},
  "financialYear": 2019,
  "licenceHolderRoles": [{"startDate": "2010-01-01", "companyId": "acme"}],
  "invoiceAccountRoles": [{"startDate": "2010-01-01", "invoiceAccountId": "ia-1", "invoiceAccountNumber": "A00000001A"}],
  "agreements": [{"code": "S127", "startDate": "2015-04-01"}],
  "chargeElements": [{
    "id": "e1", "purposeTertiary": "400", "source": "unsupported", "season": "summer", "loss": "high",
    "abstractionPeriod": {"startDay": 1, "startMonth": 4, "endDay": 31, "endMonth": 10},
    "authorisedAnnualQuantity": "50"
  }],
  "returns": [{
    "id": "r1", "status": "completed", "purposes": ["400"],
    "startDate": "2018-04-01", "endDate": "2019-03-31",
    "abstractionPeriod": {"startDay": 1, "startMonth": 4, "endDay": 31, "endMonth": 10},
    "lines": [
      {"startDate": "2018-04-01", "endDate": "2018-04-30", "quantity": 40000},
      {"startDate": "2018-05-01", "endDate": "2018-05-31", "quantity": 30000}
    ]
  }]
}`

type testServer struct {
	*httptest.Server
	store *memory.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	reg := prometheus.NewRegistry()
	svc := billing.NewService(billing.NewEngine(billing.DefaultOptions(), nil), store, store, metrics.New(reg), nil)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, store, nil), reg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

// =============================================================================
// CHARGE VERSION TESTS
// =============================================================================

func TestStageProcessAndGetRun(t *testing.T) {
	// GIVEN: a staged over-abstracting licence
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPut, "/api/charge-versions/cv-1/years/2019", overAbstractedInput)
	require.Equal(t, http.StatusOK, status, string(body))
	staged := decode[api.StagedDTO](t, body)
	assert.Equal(t, 1, staged.ChargeElements)

	// WHEN: processed
	status, body = s.do(t, http.MethodPost, "/api/charge-versions/cv-1/years/2019/two-part-tariff", "")
	require.Equal(t, http.StatusCreated, status, string(body))
	run := decode[api.RunDTO](t, body)

	// THEN: the full 70 Ml is billed and flagged
	assert.True(t, run.OverAbstracted)
	assert.Nil(t, run.ReturnsError)
	require.Len(t, run.Lines, 1)
	line := run.Lines[0]
	assert.Equal(t, "e1", line.ChargeElementID)
	assert.Equal(t, "70", line.ActualReturnQuantity.Decimal.String())
	require.NotNil(t, line.Error)
	assert.Equal(t, "over_abstraction", *line.Error)
	assert.Equal(t, map[string]bool{"S127": true, "S130S": false, "S130T": false, "S130U": false, "S130W": false}, line.Agreements)

	// AND: the run can be fetched again
	status, body = s.do(t, http.MethodGet, "/api/two-part-tariff/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, run.ID, decode[api.RunDTO](t, body).ID)
}

func TestStageInput_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed JSON", "/api/charge-versions/cv-1/years/2019", `{"chargeVersion":`},
		{"id mismatch", "/api/charge-versions/cv-2/years/2019", overAbstractedInput},
		{"year mismatch", "/api/charge-versions/cv-1/years/2020", overAbstractedInput},
		{"bad year", "/api/charge-versions/cv-1/years/twenty", overAbstractedInput},
		{"bad abstraction period", "/api/charge-versions/cv-1/years/2019",
			strings.Replace(overAbstractedInput, `"endDay": 31, "endMonth": 10}`, `"endDay": 32, "endMonth": 10}`, 1)},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
			assert.NotEmpty(t, decode[api.ErrorResponse](t, body).Error)
		})
	}
}

func TestProcess_NotStaged(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/charge-versions/nope/years/2019/two-part-tariff", "")

	assert.Equal(t, http.StatusNotFound, status, string(body))
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/two-part-tariff/runs/missing", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Run not found", decode[api.ErrorResponse](t, body).Error)
}

// =============================================================================
// COMPUTE TESTS
// =============================================================================

func TestCompute(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/two-part-tariff/compute", overAbstractedInput)
	require.Equal(t, http.StatusOK, status, string(body))

	result := decode[api.ResultDTO](t, body)
	require.Len(t, result.SubPeriods, 1)
	sp := result.SubPeriods[0]
	assert.Equal(t, "2018-04-01", sp.StartDate)
	assert.Equal(t, "2019-03-31", sp.EndDate)
	assert.True(t, sp.IsTwoPartTariff)
	require.Len(t, sp.ChargeElements, 1)
	el := sp.ChargeElements[0]
	assert.Equal(t, 214, el.BillableDays)
	assert.Equal(t, "50", el.MaxAllowableQuantity.String())
	assert.Equal(t, "70", el.ActualReturnQuantity.Decimal.String())

	// nothing was stored
	_, err := s.store.LoadInput(context.Background(), "cv-1", 2019)
	assert.ErrorIs(t, err, billing.ErrChargeVersionNotFound)
}

func TestCompute_InvalidInput(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/two-part-tariff/compute", `{"financialYear": 2019}`)

	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// SCENARIO TESTS
// =============================================================================

func TestScenarios_LoadAndProcessEach(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, status)
	list := decode[[]api.ScenarioDTO](t, body)
	require.NotEmpty(t, list)

	for _, sc := range list {
		t.Run(sc.ID, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "`+sc.ID+`"}`)
			require.Equal(t, http.StatusOK, status, string(body))

			status, body = s.do(t, http.MethodPost, "/api/charge-versions/"+sc.ChargeVersionID+"/years/2019/two-part-tariff", "")
			require.Equal(t, http.StatusCreated, status, string(body))
			assert.NotEmpty(t, decode[api.RunDTO](t, body).Lines)
		})
	}
}

func TestScenarios_Outcomes(t *testing.T) {
	s := newTestServer(t)
	process := func(id, cv string) api.RunDTO {
		status, body := s.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "`+id+`"}`)
		require.Equal(t, http.StatusOK, status, string(body))
		status, body = s.do(t, http.MethodPost, "/api/charge-versions/"+cv+"/years/2019/two-part-tariff", "")
		require.Equal(t, http.StatusCreated, status, string(body))
		return decode[api.RunDTO](t, body)
	}

	within := process("within-allowance", "cv-demo-within")
	assert.False(t, within.OverAbstracted)
	assert.Equal(t, "35", within.Lines[0].ActualReturnQuantity.Decimal.String())

	over := process("over-abstraction", "cv-demo-over")
	assert.True(t, over.OverAbstracted)
	assert.Len(t, over.Lines, 2)

	account := process("account-change", "cv-demo-account")
	require.Len(t, account.Lines, 2)
	assert.Equal(t, "ia-demo-1", account.Lines[0].InvoiceAccountID)
	assert.Equal(t, "ia-demo-2", account.Lines[1].InvoiceAccountID)

	due := process("returns-due", "cv-demo-due")
	require.NotNil(t, due.ReturnsError)
	assert.Equal(t, "some_returns_due", *due.ReturnsError)
	assert.False(t, due.Lines[0].ActualReturnQuantity.Valid)
}

func TestScenarios_Unknown(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`)

	assert.Equal(t, http.StatusNotFound, status)
}

func TestReset(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPut, "/api/charge-versions/cv-1/years/2019", overAbstractedInput)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodPost, "/api/charge-versions/cv-1/years/2019/two-part-tariff", "")
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// OPERATIONAL ENDPOINTS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/charge-versions/cv-1/years/2019", overAbstractedInput)
	s.do(t, http.MethodPost, "/api/charge-versions/cv-1/years/2019/two-part-tariff", "")

	status, _ := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `tpt_billing_runs_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "tpt_billing_over_abstraction_total 1")
}

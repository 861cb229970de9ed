package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/domain/auth"
	"github.com/yanqian/nutriforecast/internal/domain/combo"
	"github.com/yanqian/nutriforecast/internal/domain/family"
	"github.com/yanqian/nutriforecast/internal/domain/healthlog"
	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
	"github.com/yanqian/nutriforecast/internal/infra/accountrepo"
	"github.com/yanqian/nutriforecast/internal/infra/comborepo"
	"github.com/yanqian/nutriforecast/internal/infra/config"
	"github.com/yanqian/nutriforecast/internal/infra/familyrepo"
	"github.com/yanqian/nutriforecast/internal/infra/healthlogrepo"
	"github.com/yanqian/nutriforecast/internal/infra/historyrepo"
	"github.com/yanqian/nutriforecast/internal/infra/jobqueue"
	"github.com/yanqian/nutriforecast/internal/infra/jobstore"
	"github.com/yanqian/nutriforecast/pkg/metrics"
)

func TestRouter_Healthz(t *testing.T) {
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRouter_AuthFlow(t *testing.T) {
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodPost, "/api/v1/auth/register", `{"email":"Mum@Example.com","password":"pass1234","familyName":"Lee"}`, "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = env.do(http.MethodPost, "/api/v1/auth/register", `{"email":"mum@example.com","password":"pass1234","familyName":"Lee"}`, "")
	require.Equal(t, http.StatusConflict, recorder.Code)
	require.Equal(t, "email_exists", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = env.do(http.MethodPost, "/api/v1/auth/login", `{"email":"mum@example.com","password":"wrong-pass"}`, "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = env.do(http.MethodPost, "/api/v1/auth/login", `{"email":"mum@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	recorder = env.do(http.MethodGet, "/api/v1/auth/me", "", login.Token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var me auth.AccountView
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &me))
	require.Equal(t, "mum@example.com", me.Email)

	recorder = env.do(http.MethodGet, "/api/v1/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = env.do(http.MethodGet, "/api/v1/members", "", "not-a-token")
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_Classify(t *testing.T) {
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodPost, "/api/v1/nutrition/classify", `{"heightCm":170,"weightKg":65,"gender":"male"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var img nutrition.BodyImage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &img))
	require.Equal(t, 3, img.TypeCode)
	require.Equal(t, "standard", img.Name)

	recorder = env.do(http.MethodPost, "/api/v1/nutrition/classify", `{"heightCm":300,"weightKg":65,"gender":"male"}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_input", errBody["error"]["code"])
	details, ok := errBody["error"]["details"].([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	require.Equal(t, "heightCm", details[0].(map[string]any)["field"])

	recorder = env.do(http.MethodPost, "/api/v1/nutrition/classify", `{"heightCm":"tall"}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_MembersLifecycle(t *testing.T) {
	env := newRouterUnderTest(t)
	token := env.login(t)

	recorder := env.do(http.MethodPost, "/api/v1/members", `{
		"name": "Dad",
		"gender": "male",
		"birthDate": "1990-01-01",
		"heightCm": 175,
		"weightKg": 70,
		"exerciseFrequency": "moderate",
		"exerciseDuration": "medium",
		"exerciseIntensity": "medium"
	}`, token)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var member family.Member
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &member))
	require.NotEmpty(t, member.ID)

	recorder = env.do(http.MethodGet, "/api/v1/members/"+member.ID+"/meal-targets?meal=breakfast", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var target nutrition.MealTarget
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &target))
	require.Equal(t, nutrition.MealBreakfast, target.MealType)

	recorder = env.do(http.MethodGet, "/api/v1/members", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Members []family.Member `json:"members"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	require.Len(t, list.Members, 1)

	recorder = env.do(http.MethodPost, "/api/v1/members", `{"name":"Kid","birthDate":"2015-01-01","gender":"robot","heightCm":120,"weightKg":25,"exerciseFrequency":"light","exerciseDuration":"short","exerciseIntensity":"low"}`, token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_input", errBody["error"]["code"])
	require.NotNil(t, errBody["error"]["details"])

	recorder = env.do(http.MethodDelete, "/api/v1/members/"+member.ID, "", token)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = env.do(http.MethodGet, "/api/v1/members/"+member.ID, "", token)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_MemberMetricsFeedAnalysis(t *testing.T) {
	env := newRouterUnderTest(t)
	token := env.login(t)

	recorder := env.do(http.MethodPost, "/api/v1/members", `{
		"name": "Mum",
		"gender": "female",
		"birthDate": "1988-03-02",
		"heightCm": 162,
		"weightKg": 58,
		"exerciseFrequency": "light",
		"exerciseDuration": "medium",
		"exerciseIntensity": "low"
	}`, token)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var member family.Member
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &member))
	metricsPath := "/api/v1/members/" + member.ID + "/metrics"

	measured := time.Now().UTC().Add(time.Minute).Format(time.RFC3339)
	for _, body := range []string{
		`{"code":"weight","value":61,"measuredAt":"` + measured + `"}`,
		`{"code":"energy","value":2000}`,
		`{"code":"protein","value":80}`,
		`{"code":"fat","value":60}`,
		`{"code":"carbs","value":270}`,
		`{"code":"sodium","value":2300,"source":"device"}`,
	} {
		recorder = env.do(http.MethodPost, metricsPath, body, token)
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	recorder = env.do(http.MethodPost, metricsPath, `{"code":"glucose","value":5}`, token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = env.do(http.MethodGet, metricsPath+"?code=weight", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var list struct {
		Count   int               `json:"count"`
		Metrics []healthlog.Entry `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, 61.0, list.Metrics[0].Value)

	recorder = env.do(http.MethodGet, metricsPath+"/latest", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var latest struct {
		Metrics map[healthlog.MetricCode]healthlog.Entry `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &latest))
	require.Len(t, latest.Metrics, 6)
	require.Equal(t, healthlog.StatusHigh, latest.Metrics[healthlog.MetricSodium].Status)

	recorder = env.do(http.MethodGet, "/api/v1/members/"+member.ID+"/intake-summary", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"days":7`)

	recorder = env.do(http.MethodGet, "/api/v1/members/"+member.ID+"/health-status", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var status healthlog.HealthStatus
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &status))
	require.Equal(t, 61.0, *status.WeightKG)
	require.Equal(t, 2300.0, *status.Sodium)

	recorder = env.do(http.MethodGet, "/api/v1/metric-types", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"calcium"`)

	recorder = env.do(http.MethodPost, "/api/v1/analyses", `{"horizonDays":30,"memberIds":["`+member.ID+`"]}`, token)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var record analysis.Record
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &record))
	require.Len(t, record.Result.Outcomes, 1)
	result := record.Result.Outcomes[0].Result
	require.NotNil(t, result)
	require.Equal(t, 61.0, result.Profile.WeightKG)
	require.Equal(t, nutrition.Intake{Calories: 2000, ProteinG: 80, FatG: 60, CarbsG: 270}, result.Profile.Intake)

	recorder = env.do(http.MethodGet, "/api/v1/members/unknown/metrics", "", token)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newRouterUnderTest(t)

	recorder := env.do(http.MethodOptions, "/api/v1/analyses", "", "")
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, recorder.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestRouter_CombosAndRecommend(t *testing.T) {
	env := newRouterUnderTest(t)
	token := env.login(t)

	recorder := env.do(http.MethodPost, "/api/v1/combos", `{
		"name": "Rice and fish",
		"mealType": "lunch",
		"dishes": [
			{"name": "rice", "portionSize": "M", "nutrients": {"calories": 200, "proteinG": 4, "fatG": 1, "carbsG": 45}},
			{"name": "salmon", "portionSize": "L", "nutrients": {"calories": 200, "proteinG": 20, "fatG": 12, "carbsG": 0}}
		]
	}`, token)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var created combo.Combo
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	require.Equal(t, 500.0, created.Total.Calories)

	recorder = env.do(http.MethodGet, "/api/v1/combos/"+created.ID, "", token)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.do(http.MethodGet, "/api/v1/combos/recommend?ageGroup=young&limit=2", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var recs struct {
		Recommendations []combo.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &recs))
	require.Len(t, recs.Recommendations, 1)
	require.Equal(t, created.ID, recs.Recommendations[0].Combo.ID)

	recorder = env.do(http.MethodGet, "/api/v1/combos?limit=abc", "", token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_AnalysisSyncAndAsync(t *testing.T) {
	env := newRouterUnderTest(t)
	token := env.login(t)

	body := `{
		"horizonDays": 30,
		"profiles": [{
			"id": "p1",
			"gender": "female",
			"age": 35,
			"heightCm": 165,
			"weightKg": 60,
			"intake": {"calories": 1800, "proteinG": 70, "fatG": 60, "carbsG": 230},
			"exerciseFrequency": "light",
			"exerciseDuration": "short",
			"exerciseIntensity": "low"
		}]
	}`
	recorder := env.do(http.MethodPost, "/api/v1/analyses", body, token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var record analysis.Record
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &record))
	require.NotEmpty(t, record.ID)
	require.Equal(t, 30, record.Result.HorizonDays)
	require.Len(t, record.Result.Outcomes, 1)
	require.NotNil(t, record.Result.Outcomes[0].Result)

	recorder = env.do(http.MethodGet, "/api/v1/analyses", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var history struct {
		Analyses []analysis.Summary `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	require.Len(t, history.Analyses, 1)
	require.Equal(t, record.ID, history.Analyses[0].ID)

	recorder = env.do(http.MethodGet, "/api/v1/analyses/"+record.ID+"/report", "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	require.Contains(t, recorder.Body.String(), record.ID)

	recorder = env.do(http.MethodPost, "/api/v1/analyses/jobs", body, token)
	require.Equal(t, http.StatusAccepted, recorder.Code)
	var job analysis.Job
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &job))
	env.queue.Wait()

	recorder = env.do(http.MethodGet, "/api/v1/analyses/jobs/"+job.ID, "", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &job))
	require.Equal(t, analysis.JobDone, job.Status)
	require.NotEmpty(t, job.RecordID)

	recorder = env.do(http.MethodPost, "/api/v1/analyses", `{"profiles":[]}`, token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = env.do(http.MethodGet, "/api/v1/analyses/missing", "", token)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_MetricsExposed(t *testing.T) {
	env := newRouterUnderTest(t)
	token := env.login(t)

	recorder := env.do(http.MethodPost, "/api/v1/analyses", `{"mode":"sometimes","profiles":[{"age":30}]}`, token)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "go_goroutines")
}

func TestRouter_RetryWrapsComputeRoutes(t *testing.T) {
	env := newRouterUnderTest(t, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseBackoff: time.Millisecond,
			Exclude:     []string{"/api/v1/auth/register"},
		}
	})

	recorder := env.do(http.MethodPost, "/api/v1/nutrition/classify", `{"heightCm":170,"weightKg":65,"gender":"male"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "1", recorder.Header().Get(retryAttemptHeader))

	// Client errors are final.
	recorder = env.do(http.MethodPost, "/api/v1/nutrition/classify", `{"heightCm":300,"weightKg":65,"gender":"male"}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "1", recorder.Header().Get(retryAttemptHeader))
	require.Equal(t, "invalid_input", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = env.do(http.MethodPost, "/api/v1/auth/register", `{"email":"mum@example.com","password":"pass1234","familyName":"Lim"}`, "")
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Empty(t, recorder.Header().Get(retryAttemptHeader))
}

type routerEnv struct {
	server *http.Server
	queue  *jobqueue.ImmediateQueue
}

func (e *routerEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	return performRequest(method, path, body, token, e.server)
}

func (e *routerEnv) login(t *testing.T) string {
	t.Helper()
	recorder := e.do(http.MethodPost, "/api/v1/auth/register", `{"email":"dad@example.com","password":"pass1234","familyName":"Tan"}`, "")
	require.Equal(t, http.StatusCreated, recorder.Code)
	recorder = e.do(http.MethodPost, "/api/v1/auth/login", `{"email":"dad@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp.Token
}

func performRequest(method, path, body, token string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, opts ...func(*config.Config)) *routerEnv {
	t.Helper()
	logger := newTestLogger()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	stats := metrics.MustNewAnalysis(registry)

	engine := nutrition.NewEngine(nutrition.Config{
		DefaultHorizonDays: 90,
		MaxHorizonDays:     1825,
		BatchMode:          nutrition.BatchModeBestEffort,
		Allocation:         nutrition.AllocateByWeight,
		Workers:            2,
	}, logger)

	authSvc := auth.NewService(auth.Config{
		Secret:          "router-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: time.Hour,
	}, accountrepo.NewMemoryRepository(), logger)
	familySvc := family.NewService(familyrepo.NewMemoryRepository(), logger)
	comboSvc := combo.NewService(comborepo.NewMemoryRepository(), logger)
	healthRepo := healthlogrepo.NewMemoryRepository()
	healthSvc := healthlog.NewService(healthRepo, familySvc, logger)
	profiles := healthlog.NewProfileSource(familySvc, healthRepo, 7, logger)

	queue := jobqueue.NewImmediateQueue(nil)
	analysisSvc := analysis.NewService(
		analysis.Config{HistoryLimit: 10},
		engine,
		profiles,
		comboSvc,
		historyrepo.NewMemoryRepository(),
		nil,
		nil,
		jobstore.NewMemoryStore(),
		queue,
		nil,
		nil,
		stats,
		logger,
	)
	queue.SetHandler(analysisSvc.HandleJob)

	handler := NewHandler(authSvc, familySvc, healthSvc, comboSvc, analysisSvc, engine, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &routerEnv{server: NewRouter(cfg, handler, registry), queue: queue}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]any {
	t.Helper()
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

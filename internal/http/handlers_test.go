package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/repository"
	"insta-persona/internal/scraper"
	"insta-persona/internal/service"
)

type mockAnalyzer struct {
	result domain.AnalysisResult
	err    error
	gotURL string
}

func (m *mockAnalyzer) Analyze(_ context.Context, instagramURL string) (domain.AnalysisResult, error) {
	m.gotURL = instagramURL
	return m.result, m.err
}

type stubHistory struct {
	runs       []repository.RunSummary
	err        error
	gotSubject string
	gotLimit   int
}

func (s *stubHistory) RecentRuns(_ context.Context, subject string, limit int) ([]repository.RunSummary, error) {
	s.gotSubject = subject
	s.gotLimit = limit
	return s.runs, s.err
}

func newTestRouter(t *testing.T, analyzer Analyzer) *gin.Engine {
	return newTestRouterWithHistory(t, analyzer, &stubHistory{})
}

func newTestRouterWithHistory(t *testing.T, analyzer Analyzer, history HistoryProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewAnalysisHandler(zap.NewNop(), analyzer, history)
	return NewRouter(zap.NewNop(), handler, t.TempDir())
}

func performAnalyze(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "running" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAnalyzeEndpointHappyPath(t *testing.T) {
	analyzer := &mockAnalyzer{result: domain.AnalysisResult{
		Subject: "natgeo",
		Traits: domain.TraitScores{
			"Openness":          0.7,
			"Conscientiousness": 0.5,
			"Extraversion":      0.3,
			"Agreeableness":     0.5,
			"Neuroticism":       0.5,
		},
		Confidence:    0.62,
		PostsAnalyzed: 3,
		SampleData: []domain.PostRecord{
			{ID: "aaa", Likes: 10, CommentsCount: 5},
			{ID: "bbb", Likes: 30, CommentsCount: 5},
		},
		ProfileInfo:   domain.ProfileInfo{Username: "natgeo", Followers: 100},
		Visualization: "data:image/png;base64,x",
	}}
	router := newTestRouter(t, analyzer)

	rec := performAnalyze(t, router, `{"instagram_url":"https://www.instagram.com/natgeo/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if analyzer.gotURL != "https://www.instagram.com/natgeo/" {
		t.Fatalf("unexpected url forwarded: %q", analyzer.gotURL)
	}

	var body struct {
		PersonalityTraits map[string]float64 `json:"personality_traits"`
		Confidence        float64            `json:"confidence"`
		PostsAnalyzed     int                `json:"posts_analyzed"`
		Visualization     string             `json:"visualization"`
		Descriptions      map[string]string  `json:"trait_descriptions"`
		AvgEngagement     float64            `json:"avg_engagement_rate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.PostsAnalyzed != 3 || body.Confidence != 0.62 {
		t.Fatalf("unexpected payload %+v", body)
	}
	if body.PersonalityTraits["Openness"] != 0.7 {
		t.Fatalf("unexpected traits %v", body.PersonalityTraits)
	}
	// Una descripción por rasgo, derivada del score.
	if len(body.Descriptions) != 5 {
		t.Fatalf("expected 5 descriptions, got %d", len(body.Descriptions))
	}
	if body.Descriptions["Openness"] == "" {
		t.Fatal("expected a non-empty description for Openness")
	}
	// Promedio de (10+5*2)/100 y (30+5*2)/100.
	if math.Abs(body.AvgEngagement-0.3) > 1e-9 {
		t.Fatalf("avg engagement = %f, want 0.3", body.AvgEngagement)
	}
}

func TestAnalyzeEndpointMissingField(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})
	rec := performAnalyze(t, router, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeEndpointMalformedJSON(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})
	rec := performAnalyze(t, router, `{"instagram_url":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid subject", domain.ErrInvalidSubject, http.StatusBadRequest},
		{"private profile", scraper.ErrPrivateProfile, http.StatusForbidden},
		{"profile not found", scraper.ErrProfileNotFound, http.StatusNotFound},
		{"no data", service.ErrNoDataFound, http.StatusNotFound},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests},
		{"transient upstream", scraper.ErrTransient, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &mockAnalyzer{err: fmt.Errorf("analyze: %w", tc.err)})
			rec := performAnalyze(t, router, `{"instagram_url":"natgeo"}`)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["detail"] == "" {
				t.Fatalf("expected a detail message, got %s", rec.Body.String())
			}
		})
	}
}

func TestHistoryEndpoint(t *testing.T) {
	history := &stubHistory{runs: []repository.RunSummary{
		{RunID: "run-1", Subject: "natgeo", PostsAnalyzed: 5, Confidence: 0.7},
		{RunID: "run-2", Subject: "natgeo", PostsAnalyzed: 3, Confidence: 0.6},
	}}
	router := newTestRouterWithHistory(t, &mockAnalyzer{}, history)

	req := httptest.NewRequest(http.MethodGet, "/history/natgeo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if history.gotSubject != "natgeo" || history.gotLimit != historyDefaultLimit {
		t.Fatalf("unexpected lookup args: %s/%d", history.gotSubject, history.gotLimit)
	}

	var body struct {
		Subject string                  `json:"subject"`
		Runs    []repository.RunSummary `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Runs) != 2 || body.Runs[0].RunID != "run-1" {
		t.Fatalf("unexpected runs %+v", body.Runs)
	}
}

func TestHistoryEndpointInvalidSubject(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/history/bad%20subject!", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHistoryEndpointUnavailable(t *testing.T) {
	router := newTestRouterWithHistory(t, &mockAnalyzer{}, &stubHistory{err: errors.New("not configured")})

	req := httptest.NewRequest(http.MethodGet, "/history/natgeo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	router := newTestRouterWithHistory(t, &mockAnalyzer{}, &stubHistory{})

	req := httptest.NewRequest(http.MethodGet, "/history/natgeo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Runs []repository.RunSummary `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Runs == nil || len(body.Runs) != 0 {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestAnalyzeEndpointNoPostsGathered(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{err: scraper.ErrNoPosts})
	rec := performAnalyze(t, router, `{"instagram_url":"natgeo"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProxyImageMissingURL(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/proxy/image", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProxyImageStreamsUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer upstream.Close()

	router := newTestRouter(t, &mockAnalyzer{})
	req := httptest.NewRequest(http.MethodGet, "/proxy/image?url="+upstream.URL, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestProxyImagePropagatesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer upstream.Close()

	router := newTestRouter(t, &mockAnalyzer{})
	req := httptest.NewRequest(http.MethodGet, "/proxy/image?url="+upstream.URL, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected upstream status propagated, got %d", rec.Code)
	}
}

func TestProxyImageUnreachableUpstream(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})
	req := httptest.NewRequest(http.MethodGet, "/proxy/image?url=http://127.0.0.1:1/x.jpg", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &mockAnalyzer{})
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header")
	}
}

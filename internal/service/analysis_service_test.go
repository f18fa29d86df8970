package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/ml"
	"insta-persona/internal/repository"
)

type stubFetcher struct {
	posts    []domain.PostRecord
	postsErr error
	info     domain.ProfileInfo
	infoErr  error

	gotSubject  string
	gotMaxPosts int
}

func (f *stubFetcher) FetchPosts(_ context.Context, subject string, maxPosts int) ([]domain.PostRecord, error) {
	f.gotSubject = subject
	f.gotMaxPosts = maxPosts
	return f.posts, f.postsErr
}

func (f *stubFetcher) FetchProfileInfo(_ context.Context, _ string) (domain.ProfileInfo, error) {
	return f.info, f.infoErr
}

type stubRenderer struct {
	out   string
	err   error
	calls int
}

func (r *stubRenderer) Render(_ domain.TraitScores) (string, error) {
	r.calls++
	return r.out, r.err
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestAnalysisService(t *testing.T, fetcher PostFetcher, renderer Renderer, limiter AnalyzeLimiter) *AnalysisService {
	t.Helper()
	logger := zap.NewNop()
	text := NewTextScorer(&ml.MockTextClassifier{Scores: []float64{0.8, 0.6, 0.4, 0.7, 0.2}}, logger)
	image := NewImageScorer(&ml.MockImageClassifier{}, t.TempDir(), logger)
	repo := repository.NewDisabledRepository("test run")
	return NewAnalysisService(fetcher, text, image, renderer, repo, limiter, 5, 0.6, logger)
}

func TestAnalyzeHappyPath(t *testing.T) {
	fetcher := &stubFetcher{
		posts: []domain.PostRecord{
			{ID: "aaa", Caption: "sunset at the beach", Likes: 10},
			{ID: "bbb", Caption: "clip", IsVideo: true},
		},
		info: domain.ProfileInfo{Username: "natgeo", Followers: 1000},
	}
	renderer := &stubRenderer{out: "data:image/png;base64,ZmFrZQ=="}
	svc := newTestAnalysisService(t, fetcher, renderer, nil)

	result, err := svc.Analyze(context.Background(), "https://www.instagram.com/natgeo/")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if fetcher.gotSubject != "natgeo" || fetcher.gotMaxPosts != 5 {
		t.Fatalf("unexpected fetch args: %s/%d", fetcher.gotSubject, fetcher.gotMaxPosts)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
	if result.Subject != "natgeo" {
		t.Fatalf("unexpected subject %q", result.Subject)
	}
	if result.PostsAnalyzed != 2 {
		t.Fatalf("expected 2 analyzed posts, got %d", result.PostsAnalyzed)
	}
	if len(result.Traits) != len(domain.TraitNames) {
		t.Fatalf("expected five fused traits, got %d", len(result.Traits))
	}
	// Sin imágenes materializadas la modalidad visual queda neutra y la
	// fusión pondera 0.6 texto + 0.4 neutro.
	wantOpenness := 0.6*0.8 + 0.4*0.5
	if !almostEqual(result.Traits["Openness"], wantOpenness) {
		t.Fatalf("Openness = %f, want %f", result.Traits["Openness"], wantOpenness)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Fatalf("confidence %f out of range", result.Confidence)
	}
	if result.Visualization != renderer.out {
		t.Fatalf("unexpected visualization %q", result.Visualization)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected a single render, got %d", renderer.calls)
	}
	if result.ProfileInfo.Username != "natgeo" {
		t.Fatalf("expected profile info attached, got %+v", result.ProfileInfo)
	}
	if len(result.SampleData) != 2 {
		t.Fatalf("expected full sample below the display limit, got %d", len(result.SampleData))
	}
}

func TestAnalyzeInvalidURL(t *testing.T) {
	svc := newTestAnalysisService(t, &stubFetcher{}, &stubRenderer{}, nil)
	if _, err := svc.Analyze(context.Background(), "https://www.instagram.com/"); !errors.Is(err, domain.ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestAnalyzeNoDataFound(t *testing.T) {
	svc := newTestAnalysisService(t, &stubFetcher{}, &stubRenderer{}, nil)
	if _, err := svc.Analyze(context.Background(), "natgeo"); !errors.Is(err, ErrNoDataFound) {
		t.Fatalf("expected ErrNoDataFound, got %v", err)
	}
}

func TestAnalyzeFetchErrorPropagates(t *testing.T) {
	boom := errors.New("upstream broke")
	svc := newTestAnalysisService(t, &stubFetcher{postsErr: boom}, &stubRenderer{}, nil)
	if _, err := svc.Analyze(context.Background(), "natgeo"); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	fetcher := &stubFetcher{posts: []domain.PostRecord{{ID: "aaa", Caption: "hola"}}}
	svc := newTestAnalysisService(t, fetcher, &stubRenderer{}, denyAllLimiter{})
	if _, err := svc.Analyze(context.Background(), "natgeo"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if fetcher.gotSubject != "" {
		t.Fatal("expected no fetch when rate limited")
	}
}

func TestAnalyzeProfileInfoFailureIsSoft(t *testing.T) {
	fetcher := &stubFetcher{
		posts:   []domain.PostRecord{{ID: "aaa", Caption: "hola"}},
		infoErr: errors.New("profile endpoint down"),
	}
	svc := newTestAnalysisService(t, fetcher, &stubRenderer{out: "data:image/png;base64,x"}, nil)

	result, err := svc.Analyze(context.Background(), "natgeo")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.ProfileInfo.IsZero() {
		t.Fatalf("expected empty profile info, got %+v", result.ProfileInfo)
	}
}

func TestAnalyzeRenderFailureIsHard(t *testing.T) {
	fetcher := &stubFetcher{posts: []domain.PostRecord{{ID: "aaa", Caption: "hola"}}}
	renderer := &stubRenderer{err: errors.New("png encode failed")}
	svc := newTestAnalysisService(t, fetcher, renderer, nil)

	if _, err := svc.Analyze(context.Background(), "natgeo"); err == nil {
		t.Fatal("expected render failure to abort the analysis")
	}
}

func TestAnalyzeTruncatesSample(t *testing.T) {
	posts := make([]domain.PostRecord, 15)
	for i := range posts {
		posts[i] = domain.PostRecord{ID: string(rune('a' + i)), Caption: "texto"}
	}
	fetcher := &stubFetcher{posts: posts}
	svc := newTestAnalysisService(t, fetcher, &stubRenderer{out: "data:image/png;base64,x"}, nil)

	result, err := svc.Analyze(context.Background(), "natgeo")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.PostsAnalyzed != 15 {
		t.Fatalf("expected full count, got %d", result.PostsAnalyzed)
	}
	if len(result.SampleData) != sampleDisplayLimit {
		t.Fatalf("expected sample capped at %d, got %d", sampleDisplayLimit, len(result.SampleData))
	}
}

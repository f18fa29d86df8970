package scraper

import (
	"context"

	"insta-persona/internal/domain"
)

// MockClient permite tests sin llamar a la plataforma real.
type MockClient struct {
	Info        domain.ProfileInfo
	InfoErr     error
	Posts       []RawPost
	PostsErr    error
	CommentsBy  map[string][]string
	CommentsErr error
	Images      map[string][]byte
	ImagesErr   error

	RecentPostsCalls int
	CommentsCalls    int
	FetchImageCalls  int
}

func (m *MockClient) ProfileInfo(_ context.Context, _ string) (domain.ProfileInfo, error) {
	return m.Info, m.InfoErr
}

func (m *MockClient) RecentPosts(_ context.Context, _ string, limit int) ([]RawPost, error) {
	m.RecentPostsCalls++
	if m.PostsErr != nil {
		return nil, m.PostsErr
	}
	if len(m.Posts) > limit {
		return m.Posts[:limit], nil
	}
	return m.Posts, nil
}

func (m *MockClient) Comments(_ context.Context, shortcode string, limit int) ([]string, error) {
	m.CommentsCalls++
	if m.CommentsErr != nil {
		return nil, m.CommentsErr
	}
	comments := m.CommentsBy[shortcode]
	if len(comments) > limit {
		return comments[:limit], nil
	}
	return comments, nil
}

func (m *MockClient) FetchImage(_ context.Context, imageURL string) ([]byte, error) {
	m.FetchImageCalls++
	if m.ImagesErr != nil {
		return nil, m.ImagesErr
	}
	data, ok := m.Images[imageURL]
	if !ok {
		return nil, ErrTransient
	}
	return data, nil
}

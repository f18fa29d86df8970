package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"insta-persona/internal/domain"
)

// Errores a nivel de perfil; se propagan hasta el orquestador.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrPrivateProfile  = errors.New("profile is private")
	ErrNoPosts         = errors.New("no posts gathered")
	ErrTransient       = errors.New("transient scrape error")
)

// RawPost es el post tal como lo entrega el colaborador, antes de normalizar.
type RawPost struct {
	Shortcode     string
	Caption       string
	Likes         int
	CommentsCount int
	TakenAt       time.Time
	IsVideo       bool
	DisplayURL    string
	Location      string
}

// Client define el colaborador de scraping. Las implementaciones pueden
// fallar con los errores de perfil de este paquete o con ErrTransient.
type Client interface {
	ProfileInfo(ctx context.Context, username string) (domain.ProfileInfo, error)
	RecentPosts(ctx context.Context, username string, limit int) ([]RawPost, error)
	Comments(ctx context.Context, shortcode string, limit int) ([]string, error)
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPClient implementa Client contra el endpoint web público del perfil.
type HTTPClient struct {
	baseURL       string
	sessionCookie string
	client        *http.Client
}

const webAppID = "936619743392459"

// NewHTTPClient construye el cliente. sessionCookie es un pass-through
// opcional de credencial; vacío significa acceso anónimo.
func NewHTTPClient(baseURL, sessionCookie string) *HTTPClient {
	return &HTTPClient{
		baseURL:       baseURL,
		sessionCookie: sessionCookie,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

type webProfileResponse struct {
	Data struct {
		User *struct {
			Username      string `json:"username"`
			FullName      string `json:"full_name"`
			Biography     string `json:"biography"`
			IsPrivate     bool   `json:"is_private"`
			IsVerified    bool   `json:"is_verified"`
			ProfilePicURL string `json:"profile_pic_url_hd"`
			EdgeFollowedBy struct {
				Count int64 `json:"count"`
			} `json:"edge_followed_by"`
			EdgeFollow struct {
				Count int64 `json:"count"`
			} `json:"edge_follow"`
			Timeline struct {
				Count int64 `json:"count"`
				Edges []struct {
					Node struct {
						Shortcode  string `json:"shortcode"`
						DisplayURL string `json:"display_url"`
						IsVideo    bool   `json:"is_video"`
						TakenAt    int64  `json:"taken_at_timestamp"`
						Caption    struct {
							Edges []struct {
								Node struct {
									Text string `json:"text"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"edge_media_to_caption"`
						Likes struct {
							Count int `json:"count"`
						} `json:"edge_liked_by"`
						CommentCount struct {
							Count int `json:"count"`
						} `json:"edge_media_to_comment"`
						Location *struct {
							Name string `json:"name"`
						} `json:"location"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

func (c *HTTPClient) fetchWebProfile(ctx context.Context, username string) (*webProfileResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.baseURL, url.QueryEscape(username))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProfileNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status=%d", ErrTransient, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransient, err)
	}

	var parsed webProfileResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrTransient, err)
	}
	if parsed.Data.User == nil {
		return nil, ErrProfileNotFound
	}
	return &parsed, nil
}

func (c *HTTPClient) ProfileInfo(ctx context.Context, username string) (domain.ProfileInfo, error) {
	parsed, err := c.fetchWebProfile(ctx, username)
	if err != nil {
		return domain.ProfileInfo{}, err
	}
	user := parsed.Data.User
	return domain.ProfileInfo{
		Username:      user.Username,
		FullName:      user.FullName,
		Biography:     user.Biography,
		Followers:     user.EdgeFollowedBy.Count,
		Following:     user.EdgeFollow.Count,
		PostsCount:    user.Timeline.Count,
		IsPrivate:     user.IsPrivate,
		IsVerified:    user.IsVerified,
		ProfilePicURL: user.ProfilePicURL,
	}, nil
}

func (c *HTTPClient) RecentPosts(ctx context.Context, username string, limit int) ([]RawPost, error) {
	parsed, err := c.fetchWebProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	user := parsed.Data.User
	if user.IsPrivate {
		return nil, ErrPrivateProfile
	}

	posts := make([]RawPost, 0, limit)
	for _, edge := range user.Timeline.Edges {
		if len(posts) >= limit {
			break
		}
		node := edge.Node
		raw := RawPost{
			Shortcode:     node.Shortcode,
			Likes:         node.Likes.Count,
			CommentsCount: node.CommentCount.Count,
			TakenAt:       time.Unix(node.TakenAt, 0).UTC(),
			IsVideo:       node.IsVideo,
			DisplayURL:    node.DisplayURL,
		}
		if len(node.Caption.Edges) > 0 {
			raw.Caption = node.Caption.Edges[0].Node.Text
		}
		if node.Location != nil {
			raw.Location = node.Location.Name
		}
		posts = append(posts, raw)
	}
	return posts, nil
}

type commentsResponse struct {
	Comments []struct {
		Text string `json:"text"`
	} `json:"comments"`
}

func (c *HTTPClient) Comments(ctx context.Context, shortcode string, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/media/%s/comments/?count=%d", c.baseURL, url.PathEscape(shortcode), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: comments status=%d", ErrTransient, resp.StatusCode)
	}

	var parsed commentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode comments: %v", ErrTransient, err)
	}

	texts := make([]string, 0, len(parsed.Comments))
	for _, comment := range parsed.Comments {
		if len(texts) >= limit {
			break
		}
		texts = append(texts, comment.Text)
	}
	return texts, nil
}

func (c *HTTPClient) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image status=%d", ErrTransient, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) decorate(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("X-IG-App-ID", webAppID)
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionCookie})
	}
}

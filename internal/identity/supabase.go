package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Supabase looks users up through the auth admin API using the service role key.
type Supabase struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

func NewSupabase(baseURL, serviceKey string, timeout time.Duration) *Supabase {
	return &Supabase{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Client:     &http.Client{Timeout: timeout},
	}
}

type adminUser struct {
	ID           string `json:"id"`
	UserMetadata struct {
		FullName   string `json:"full_name"`
		Name       string `json:"name"`
		AvatarURL  string `json:"avatar_url"`
		SocialLink string `json:"social_link"`
	} `json:"user_metadata"`
}

func (s *Supabase) Verify(ctx context.Context, authorRef string) (Identity, error) {
	if authorRef == "" {
		return Identity{}, nil
	}

	endpoint := s.BaseURL + "/auth/v1/admin/users/" + url.PathEscape(authorRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusBadRequest:
		// unknown or malformed user id
		return Identity{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Identity{}, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var user adminUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Identity{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if user.ID == "" {
		return Identity{}, nil
	}

	name := user.UserMetadata.FullName
	if name == "" {
		name = user.UserMetadata.Name
	}
	profile := user.UserMetadata.SocialLink
	if profile == "" {
		profile = user.UserMetadata.AvatarURL
	}
	return Identity{Verified: true, AuthoritativeName: strings.TrimSpace(name), ProfileRef: profile}, nil
}

package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const playlistPageSize = 50

// YouTubeSource reads playlists through the YouTube Data API. Only the first page of items is read.
type YouTubeSource struct {
	svc *youtube.Service
}

// NewYouTubeSource creates a client authenticated with an API key.
func NewYouTubeSource(ctx context.Context, apiKey string) (*YouTubeSource, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("youtube api key missing")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &YouTubeSource{svc: svc}, nil
}

func (s *YouTubeSource) Playlist(ctx context.Context, playlistID string) (Playlist, error) {
	meta, err := s.svc.Playlists.List([]string{"snippet"}).Id(playlistID).Context(ctx).Do()
	if err != nil {
		return Playlist{}, fmt.Errorf("playlist lookup: %w", err)
	}
	if len(meta.Items) == 0 {
		return Playlist{}, ErrPlaylistNotFound
	}

	items, err := s.svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(playlistPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return Playlist{}, fmt.Errorf("playlist items: %w", err)
	}

	out := Playlist{ID: playlistID, Title: meta.Items[0].Snippet.Title}
	for _, item := range items.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		out.Videos = append(out.Videos, Video{
			ID:          item.Snippet.ResourceId.VideoId,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
		})
	}
	return out, nil
}

// ParsePlaylistID accepts a bare id or a youtube.com URL carrying a list parameter.
func ParsePlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: playlist id is required", ErrInvalidInput)
	}
	if i := strings.Index(input, "list="); i >= 0 {
		input = input[i+len("list="):]
		if j := strings.IndexAny(input, "&#"); j >= 0 {
			input = input[:j]
		}
	}
	for _, r := range input {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", fmt.Errorf("%w: malformed playlist id", ErrInvalidInput)
		}
	}
	if input == "" {
		return "", fmt.Errorf("%w: malformed playlist id", ErrInvalidInput)
	}
	return input, nil
}

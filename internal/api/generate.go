package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"flaire-cli/internal/models"

	"github.com/rs/zerolog/log"
)

// UploadedPhoto is one stored photo acknowledged by the backend.
type UploadedPhoto struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
}

// UploadPhotos uploads local files as a multipart batch and returns the
// backend-assigned ids paired with the original filenames.
func (c *Client) UploadPhotos(ctx context.Context, token string, paths []string) ([]UploadedPhoto, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		file.Close()
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/photos/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		Photos []UploadedPhoto `json:"photos"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	log.Info().Int("count", len(resp.Photos)).Msg("Photos uploaded")
	return resp.Photos, nil
}

// profileResponse accepts both field naming conventions the backend has used
// for the match score and strength label. Normalization into the internal
// representation happens here, never in display code.
type profileResponse struct {
	Bio                  string   `json:"bio"`
	Traits               []string `json:"traits"`
	Interests            []string `json:"interests"`
	MatchPercentageSnake *float64 `json:"match_percentage"`
	MatchPercentageCamel *float64 `json:"matchPercentage"`
	ProfileStrengthSnake *string  `json:"profile_strength"`
	ProfileStrengthCamel *string  `json:"profileStrength"`
}

func (r *profileResponse) toProfile() *models.GeneratedProfile {
	// Prefer snake_case when both conventions are present.
	score := 0.0
	if r.MatchPercentageSnake != nil {
		score = *r.MatchPercentageSnake
	} else if r.MatchPercentageCamel != nil {
		score = *r.MatchPercentageCamel
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	strength := ""
	if r.ProfileStrengthSnake != nil {
		strength = *r.ProfileStrengthSnake
	} else if r.ProfileStrengthCamel != nil {
		strength = *r.ProfileStrengthCamel
	}

	return &models.GeneratedProfile{
		Bio:             r.Bio,
		Traits:          r.Traits,
		Interests:       r.Interests,
		MatchPercentage: int(score),
		ProfileStrength: strength,
	}
}

// GenerateProfile requests profile generation from already-uploaded photo ids.
func (c *Client) GenerateProfile(ctx context.Context, token string, photoIDs []string) (*models.GeneratedProfile, error) {
	var resp profileResponse
	if err := c.postJSON(ctx, "/profile/generate", token, photoIDs, &resp); err != nil {
		return nil, err
	}
	return resp.toProfile(), nil
}

type photoURLRequest struct {
	PhotoURLs   []string       `json:"photo_urls"`
	Context     string         `json:"context,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// GenerateProfileFromPhotos requests end-to-end profile generation directly
// from encoded photo content.
func (c *Client) GenerateProfileFromPhotos(ctx context.Context, photoURLs []string, preferences map[string]any) (*models.GeneratedProfile, error) {
	var resp profileResponse
	body := photoURLRequest{PhotoURLs: photoURLs, Preferences: preferences}
	if err := c.postJSON(ctx, "/profile/generate-from-photos", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.toProfile(), nil
}

// GenerateOpeners requests conversation starters for a target photo. The
// backend returns bare text only; scoring is up to the caller.
func (c *Client) GenerateOpeners(ctx context.Context, photoURLs []string, hint string, preferences map[string]any) ([]string, error) {
	var resp struct {
		Starters []string `json:"starters"`
	}
	body := photoURLRequest{PhotoURLs: photoURLs, Context: hint, Preferences: preferences}
	if err := c.postJSON(ctx, "/conversation/generate", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.Starters, nil
}

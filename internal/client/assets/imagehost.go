package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

// maxResponseBody bounds the image host response read into memory.
const maxResponseBody = 1 << 20

// ImageHostStore talks to an ImgBB-compatible upload API: a multipart POST
// with the file in the "image" field and the API key in the query string.
type ImageHostStore struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewImageHostStore(endpoint, apiKey string, httpClient *http.Client) (*ImageHostStore, error) {
	if endpoint == "" {
		return nil, errors.New("image host store: endpoint is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageHostStore{endpoint: endpoint, apiKey: apiKey, http: httpClient}, nil
}

type imageHostResponse struct {
	Success    bool `json:"success"`
	StatusCode int  `json:"status_code"`
	Data       struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *ImageHostStore) Store(ctx context.Context, asset *models.Asset) (StoreResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", asset.Name)
	if err != nil {
		return StoreResponse{}, err
	}
	if _, err := fw.Write(asset.Data); err != nil {
		return StoreResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return StoreResponse{}, err
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return StoreResponse{}, fmt.Errorf("image host endpoint: %w", err)
	}
	if s.apiKey != "" {
		q := u.Query()
		q.Set("key", s.apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &body)
	if err != nil {
		return StoreResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return StoreResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return StoreResponse{}, fmt.Errorf("read image host response: %w", err)
	}

	var out imageHostResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return StoreResponse{}, fmt.Errorf("image host unavailable: %s", resp.Status)
		}
		return StoreResponse{Success: false, Reason: fmt.Sprintf("unreadable response (%s)", resp.Status)}, nil
	}

	if !out.Success {
		reason := out.Error.Message
		if reason == "" {
			code := out.StatusCode
			if code == 0 {
				code = resp.StatusCode
			}
			reason = fmt.Sprintf("status %d", code)
		}
		return StoreResponse{Success: false, Reason: reason}, nil
	}

	link := out.Data.URL
	if link == "" {
		link = out.Data.DisplayURL
	}
	return StoreResponse{Success: true, URL: link}, nil
}

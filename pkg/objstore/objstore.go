package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUploadFailed = errors.New("object upload failed")

// Storage is the object-storage collaborator used for product images.
type Storage interface {
	Upload(ctx context.Context, ownerID int64, filename string, r io.Reader) (string, error)
}

type httpStorage struct {
	baseURL   string
	publicURL string
	apiKey    string
	http      *http.Client
	logger    *zap.Logger
}

func NewStorage(baseURL, publicURL, apiKey string, logger *zap.Logger) Storage {
	return &httpStorage{
		baseURL:   baseURL,
		publicURL: publicURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// Upload streams the file to the storage platform under a random key scoped
// by owner and returns the public URL.
func (s *httpStorage) Upload(ctx context.Context, ownerID int64, filename string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%d/%s%s", ownerID, uuid.New().String(), path.Ext(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/objects/"+url.PathEscape(key), r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Warn("object upload request failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	return s.publicURL + "/" + key, nil
}

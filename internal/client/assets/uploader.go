package assets

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/filex"
	"github.com/dmitrijs2005/travelease/internal/logging"
)

//go:generate mockgen -source=uploader.go -destination=../mocks/assets.go -package=mocks

// MaxAssetSize is the largest accepted asset, 5 MiB.
const MaxAssetSize int64 = 5 << 20

// StoreResponse is what an object store said about one upload.
// URL is only meaningful when Success is true.
type StoreResponse struct {
	Success bool
	URL     string
	Reason  string
}

// ObjectStore persists one asset. A returned error means the store could not
// be reached or did not answer; an answer, positive or not, is a response.
type ObjectStore interface {
	Store(ctx context.Context, asset *models.Asset) (StoreResponse, error)
}

// Uploader turns an asset into a public URL or a typed failure, never both.
type Uploader interface {
	Upload(ctx context.Context, asset *models.Asset) (string, error)
}

type AssetUploader struct {
	store   ObjectStore
	maxSize int64
	logger  logging.Logger
}

// NewUploader wraps store with the size ceiling. maxSize <= 0 means
// MaxAssetSize.
func NewUploader(store ObjectStore, maxSize int64, logger logging.Logger) *AssetUploader {
	if maxSize <= 0 {
		maxSize = MaxAssetSize
	}
	return &AssetUploader{store: store, maxSize: maxSize, logger: logger}
}

// Upload performs no retries. Oversized assets fail before the store is
// contacted.
func (u *AssetUploader) Upload(ctx context.Context, asset *models.Asset) (string, error) {
	if err := CheckSize(asset, u.maxSize); err != nil {
		return "", err
	}

	resp, err := u.store.Store(ctx, asset)
	if err != nil {
		u.logger.Warn(ctx, "asset upload failed", "name", asset.Name, "error", err)
		return "", failure.WithHint(
			failure.Wrap(err, failure.ErrUploadTransport, "could not upload image"),
			"Check your connection and try again.")
	}
	if !resp.Success {
		reason := resp.Reason
		if reason == "" {
			reason = "the image store did not accept the file"
		}
		u.logger.Warn(ctx, "asset upload rejected", "name", asset.Name, "reason", reason)
		return "", failure.Newf(failure.ErrUploadRejected, "image upload rejected: %s", reason)
	}
	if resp.URL == "" {
		return "", failure.New(failure.ErrUploadRejected, "image upload rejected: store returned no URL")
	}

	u.logger.Debug(ctx, "asset uploaded", "name", asset.Name, "size", asset.Size(), "url", resp.URL)
	return resp.URL, nil
}

// CheckSize validates presence and the size ceiling without any I/O.
func CheckSize(asset *models.Asset, maxSize int64) error {
	if asset == nil || len(asset.Data) == 0 {
		return failure.New(failure.ErrValidation, "an image file is required")
	}
	if maxSize <= 0 {
		maxSize = MaxAssetSize
	}
	if asset.Size() > maxSize {
		return tooLarge(asset.Size(), maxSize)
	}
	return nil
}

func tooLarge(size, maxSize int64) error {
	return failure.WithHint(
		failure.Newf(failure.ErrFileTooLarge, "file is %s, the limit is %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxSize))),
		"Pick a smaller image.")
}

// Load reads an image from disk; "~" expands to the home directory. The
// size is checked from file metadata before anything is read.
func Load(path string, maxSize int64) (*models.Asset, error) {
	if maxSize <= 0 {
		maxSize = MaxAssetSize
	}
	path, err := filex.ExpandHome(path)
	if err != nil {
		return nil, failure.Wrap(err, failure.ErrValidation, "cannot resolve image path")
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, failure.Wrap(err, failure.ErrValidation, "cannot open image")
	}
	if fi.IsDir() {
		return nil, failure.Newf(failure.ErrValidation, "%s is a directory", path)
	}
	if fi.Size() > maxSize {
		return nil, tooLarge(fi.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(err, failure.ErrValidation, "cannot read image")
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil, failure.Newf(failure.ErrValidation, "%s is not an image (%s)", filepath.Base(path), ct)
	}

	return &models.Asset{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

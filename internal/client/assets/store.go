package assets

import (
	"context"
	"fmt"
	"net/http"
)

const (
	BackendS3        = "s3"
	BackendImageHost = "imagehost"
)

// StoreOptions selects and configures the single active object store.
type StoreOptions struct {
	Backend      string
	S3           S3Options
	ImageHostURL string
	ImageHostKey string
}

func NewObjectStore(ctx context.Context, opts StoreOptions, httpClient *http.Client) (ObjectStore, error) {
	switch opts.Backend {
	case BackendS3:
		return NewS3Store(ctx, opts.S3, httpClient)
	case BackendImageHost, "":
		return NewImageHostStore(opts.ImageHostURL, opts.ImageHostKey, httpClient)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", opts.Backend)
	}
}

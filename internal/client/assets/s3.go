package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/travelease/internal/client/models"
	"github.com/dmitrijs2005/travelease/internal/netx"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type S3Options struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	KeyPrefix     string
	PresignTTL    time.Duration
}

// publicBase is where uploaded objects can be read back, defaulting to
// path-style addressing on the endpoint.
func (o S3Options) publicBase() string {
	if o.PublicBaseURL != "" {
		return strings.TrimRight(o.PublicBaseURL, "/")
	}
	return strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
}

// S3Store presigns a PUT for every asset and uploads the bytes over plain
// HTTP, so the credentials never travel with the payload.
type S3Store struct {
	opts    S3Options
	presign *s3.PresignClient
	http    *http.Client
	now     func() time.Time
}

func NewS3Store(ctx context.Context, opts S3Options, httpClient *http.Client) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 store: bucket is required")
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 store: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		opts:    opts,
		presign: newS3PresignClient(client),
		http:    httpClient,
		now:     time.Now,
	}, nil
}

func (s *S3Store) objectKey(asset *models.Asset) string {
	d := s.now().UTC()
	name := fmt.Sprintf("%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(asset.Name)))
	if s.opts.KeyPrefix == "" {
		return name
	}
	return strings.Trim(s.opts.KeyPrefix, "/") + "/" + name
}

func (s *S3Store) Store(ctx context.Context, asset *models.Asset) (StoreResponse, error) {
	bucket := s.opts.Bucket
	key := s.objectKey(asset)
	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(s.opts.PresignTTL))
	if err != nil {
		return StoreResponse{}, fmt.Errorf("presign put: %w", err)
	}

	if err := netx.PutBytes(ctx, s.http, req.URL, contentType, asset.Data); err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
			return StoreResponse{Success: false, Reason: rejectionReason(se)}, nil
		}
		return StoreResponse{}, err
	}

	return StoreResponse{Success: true, URL: s.opts.publicBase() + "/" + key}, nil
}

func rejectionReason(se *netx.StatusError) string {
	if body := strings.TrimSpace(se.Body); body != "" {
		return fmt.Sprintf("%s: %s", se.Status, body)
	}
	return se.Status
}

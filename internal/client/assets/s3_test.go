package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/travelease/internal/client/models"
)

var s3SeamMu sync.Mutex

// stubPresign points every presigned PUT at target and records the input.
func stubPresign(t *testing.T, target string, seen *s3.PutObjectInput, presignErr error) {
	t.Helper()
	s3SeamMu.Lock()
	orig := presignPutObject
	t.Cleanup(func() {
		presignPutObject = orig
		s3SeamMu.Unlock()
	})

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if seen != nil {
			*seen = *in
		}
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: target + "/" + aws.ToString(in.Key) + "?X-Amz-Signature=test", Method: http.MethodPut}, nil
	}
}

func newTestS3Store(t *testing.T, opts S3Options, client *http.Client) *S3Store {
	t.Helper()
	if opts.Bucket == "" {
		opts.Bucket = "travelease"
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	st, err := NewS3Store(context.Background(), opts, client)
	require.NoError(t, err)
	st.now = func() time.Time { return time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC) }
	return st
}

func TestS3Store_Store_Success(t *testing.T) {
	var gotBody []byte
	var gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var in s3.PutObjectInput
	stubPresign(t, ts.URL, &in, nil)

	st := newTestS3Store(t, S3Options{
		Endpoint:      "http://127.0.0.1:9000",
		KeyPrefix:     "/covers/",
		PublicBaseURL: "https://cdn.example.com/",
	}, ts.Client())

	a := &models.Asset{Name: "Hiace.JPG", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}
	resp, err := st.Store(context.Background(), a)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "travelease", aws.ToString(in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(in.ContentType))

	key := aws.ToString(in.Key)
	assert.True(t, strings.HasPrefix(key, "covers/2025/07/04/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, "https://cdn.example.com/"+key, resp.URL)

	assert.Equal(t, "image/jpeg", gotCT)
	assert.Equal(t, []byte("jpeg-bytes"), gotBody)
}

func TestS3Store_Store_DefaultPublicURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	var in s3.PutObjectInput
	stubPresign(t, ts.URL, &in, nil)

	st := newTestS3Store(t, S3Options{Endpoint: "http://minio:9000/"}, ts.Client())
	resp, err := st.Store(context.Background(), &models.Asset{Name: "a.png", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/travelease/"+aws.ToString(in.Key), resp.URL)
	assert.Equal(t, "application/octet-stream", aws.ToString(in.ContentType))
}

func TestS3Store_Store_Failures(t *testing.T) {
	t.Run("4xx is a rejection", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("<Error><Code>AccessDenied</Code></Error>"))
		}))
		defer ts.Close()
		stubPresign(t, ts.URL, nil, nil)

		resp, err := newTestS3Store(t, S3Options{}, ts.Client()).Store(context.Background(), &models.Asset{Name: "a.png", Data: []byte{1}})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Reason, "AccessDenied")
	})

	t.Run("5xx is a transport error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()
		stubPresign(t, ts.URL, nil, nil)

		_, err := newTestS3Store(t, S3Options{}, ts.Client()).Store(context.Background(), &models.Asset{Name: "a.png", Data: []byte{1}})
		require.Error(t, err)
	})

	t.Run("presign error", func(t *testing.T) {
		stubPresign(t, "http://unused", nil, errors.New("no credentials"))

		_, err := newTestS3Store(t, S3Options{}, nil).Store(context.Background(), &models.Asset{Name: "a.png", Data: []byte{1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "presign put")
	})
}

func TestNewS3Store_ConfigErrors(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{}, nil)
	require.Error(t, err)

	s3SeamMu.Lock()
	orig := loadDefaultAWSConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = orig
		s3SeamMu.Unlock()
	})
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-north-1", lo.Region)
		return aws.Config{}, errors.New("boom")
	}

	_, err = NewS3Store(context.Background(), S3Options{Bucket: "b", Region: "eu-north-1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load aws config")
}

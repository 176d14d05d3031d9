package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fetcher returns the raw bytes of a data file.
type Fetcher interface {
	Fetch(ctx context.Context, loc Location) (io.ReadCloser, error)
}

// FileFetcher reads local files.
type FileFetcher struct{}

func (FileFetcher) Fetch(_ context.Context, loc Location) (io.ReadCloser, error) {
	return os.Open(loc.Path)
}

// HTTPFetcher downloads http(s) URLs with a GET request.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, loc Location) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", loc.URL, resp.Status)
	}
	return resp.Body, nil
}

// S3API is the subset of the S3 client used to download objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads s3://bucket/key objects.
type S3Fetcher struct {
	client S3API
}

func NewS3Fetcher(client S3API) *S3Fetcher {
	if client == nil {
		panic("client cannot be nil")
	}
	return &S3Fetcher{client: client}
}

// NewDefaultS3Fetcher builds an S3 client from the default AWS credential chain
// (environment, shared config, instance role).
func NewDefaultS3Fetcher(ctx context.Context) (*S3Fetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Fetcher(s3.NewFromConfig(cfg)), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, loc Location) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Host),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", loc.Host, loc.Path, err)
	}
	return out.Body, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSOptions configures GCS client initialization. With no credentials set
// the application default credentials are used.
type GCSOptions struct {
	// CredentialsFile is a service account JSON file path.
	CredentialsFile string
	// CredentialsJSON is an inline service account JSON document.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint (emulators).
	Endpoint string
	// WithoutAuth disables authentication (emulators).
	WithoutAuth bool
	// GoogleAccessID and PrivateKey sign URLs when the credentials cannot.
	GoogleAccessID string
	PrivateKey     []byte
}

// GCS implements Storage on Google Cloud Storage.
type GCS struct {
	bucket *gcs.BucketHandle
	client *gcs.Client
	opts   GCSOptions
}

// NewGCS builds the client from opts and binds it to bucket.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCS, error) {
	clientOpts, err := gcsClientOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs new client: %w", err)
	}

	return &GCS{bucket: client.Bucket(bucket), client: client, opts: opts}, nil
}

func gcsClientOptions(ctx context.Context, opts GCSOptions) ([]option.ClientOption, error) {
	var out []option.ClientOption
	if opts.WithoutAuth {
		out = append(out, option.WithoutAuthentication())
	}

	credsJSON := opts.CredentialsJSON
	if len(credsJSON) == 0 && opts.CredentialsFile != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("storage: read gcs credentials: %w", err)
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
		}
		out = append(out, option.WithCredentials(creds))
	}

	if opts.Endpoint != "" {
		out = append(out, option.WithEndpoint(opts.Endpoint))
	}
	return out, nil
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCS) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	return g.bucket.SignedURL(key, &gcs.SignedURLOptions{
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		Scheme:         gcs.SigningSchemeV4,
		GoogleAccessID: g.opts.GoogleAccessID,
		PrivateKey:     g.opts.PrivateKey,
	})
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) Close() error {
	return g.client.Close()
}

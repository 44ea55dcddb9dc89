// Package media turns stored card media references into URLs the chat
// platform can fetch.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultPresignTTL = time.Hour
	urlCacheSize      = 4096
)

// Resolver maps a media reference to a fetchable URL.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Passthrough returns references unchanged, for catalogs that store full URLs.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, ref string) (string, error) {
	return ref, nil
}

type SpacesConfig struct {
	Key      string
	Secret   string
	Region   string
	Bucket   string
	CardRoot string
	TTL      time.Duration
}

type presigned struct {
	url     string
	expires time.Time
}

// SpacesResolver presigns GET requests for card media kept in a
// DigitalOcean Spaces bucket. Presigned URLs are reused while more than half
// of their lifetime remains.
type SpacesResolver struct {
	presign  *s3.PresignClient
	bucket   string
	cardRoot string
	ttl      time.Duration
	cache    *lru.Cache
	now      func() time.Time
}

func NewSpacesResolver(ctx context.Context, cfg SpacesConfig) (*SpacesResolver, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces config: %w", err)
	}

	cache, err := lru.New(urlCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create url cache: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	return &SpacesResolver{
		presign:  s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:   cfg.Bucket,
		cardRoot: strings.Trim(cfg.CardRoot, "/"),
		ttl:      ttl,
		cache:    cache,
		now:      time.Now,
	}, nil
}

// Resolve presigns ref as an object key under the card root. Absolute URLs
// are returned as they are.
func (r *SpacesResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || IsURL(ref) {
		return ref, nil
	}

	key := r.objectKey(ref)
	if v, ok := r.cache.Get(key); ok {
		p := v.(presigned)
		if p.expires.Sub(r.now()) > r.ttl/2 {
			return p.url, nil
		}
	}

	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		slog.Error("Failed to presign card media",
			slog.String("type", "sys"),
			slog.String("key", key),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	r.cache.Add(key, presigned{url: req.URL, expires: r.now().Add(r.ttl)})
	return req.URL, nil
}

func (r *SpacesResolver) objectKey(ref string) string {
	ref = strings.TrimPrefix(ref, "/")
	if r.cardRoot == "" || strings.HasPrefix(ref, r.cardRoot+"/") {
		return ref
	}
	return r.cardRoot + "/" + ref
}

func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

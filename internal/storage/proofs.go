// Package storage persists payment proof files in the object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// S3API is the S3 client subset the proof store uses (allows mocking in tests).
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DefaultMaxProofBytes caps proof uploads at 5MB.
const DefaultMaxProofBytes = 5 * 1024 * 1024

// allowedProofTypes restricts proofs to images and PDFs.
var allowedProofTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

var (
	// ErrProofTooLarge is returned when the upload exceeds the size cap
	ErrProofTooLarge = fmt.Errorf("proof file exceeds the %dMB limit", DefaultMaxProofBytes/(1024*1024))

	// ErrProofBadType is returned for content types outside images/PDF
	ErrProofBadType = fmt.Errorf("proof file must be an image or PDF")
)

// ProofStore uploads payment proofs to S3 under a key namespaced by the
// submitting user and the upload timestamp.
type ProofStore struct {
	s3Client   S3API
	bucket     string
	region     string
	publicBase string
	maxBytes   int64
	logger     *logging.Logger
	now        func() time.Time
}

// ProofStoreConfig holds configuration for the ProofStore.
type ProofStoreConfig struct {
	Bucket     string
	Region     string
	PublicBase string // optional CDN/base URL; defaults to the S3 virtual-host URL
	MaxBytes   int64
	Logger     *logging.Logger
}

// NewProofStore creates a proof store. If bucket is empty, Enabled reports
// false and uploads fail fast.
func NewProofStore(client S3API, cfg ProofStoreConfig) *ProofStore {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxProofBytes
	}
	return &ProofStore{
		s3Client:   client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicBase: strings.TrimSuffix(cfg.PublicBase, "/"),
		maxBytes:   cfg.MaxBytes,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Enabled returns true if proof storage is configured.
func (ps *ProofStore) Enabled() bool {
	return ps != nil && ps.bucket != "" && ps.s3Client != nil
}

// Upload stores a proof file and returns its public URL.
func (ps *ProofStore) Upload(ctx context.Context, userID, filename, contentType string, size int64, body io.Reader) (string, error) {
	if !ps.Enabled() {
		return "", fmt.Errorf("storage: proof store not configured")
	}
	if size > ps.maxBytes {
		return "", ErrProofTooLarge
	}
	if _, ok := allowedProofTypes[strings.ToLower(strings.TrimSpace(contentType))]; !ok {
		return "", ErrProofBadType
	}

	key := fmt.Sprintf("payment-proofs/%s/%d-%s", userID, ps.now().UTC().Unix(), sanitizeFilename(filename))
	_, err := ps.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(ps.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	ps.logger.Info("payment proof uploaded", "key", key, "bytes", size)
	return ps.publicURL(key), nil
}

func (ps *ProofStore) publicURL(key string) string {
	if ps.publicBase != "" {
		return ps.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", ps.bucket, ps.region, key)
}

// sanitizeFilename strips path separators and whitespace so user-supplied
// names cannot escape the key namespace.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" || name == "." {
		return "proof"
	}
	return name
}

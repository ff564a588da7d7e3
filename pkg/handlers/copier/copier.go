// Package copier implements the custom resource that fills a website bucket: it copies the
// build artifacts from their source location to the destination prefix and then writes the
// generated files.
package copier

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/customresource"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
)

const defaultContentType = "application/octet-stream"

// S3API is the subset of the S3 client the copier needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Handler struct {
	client  S3API
	logger  observability.StructuredLogger
	tempDir string
}

type Option func(*Handler)

// WithLogger overrides the process-wide logger.
func WithLogger(l observability.StructuredLogger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTempDir sets where archives are spooled while they are extracted. The default is the
// system temp directory (/tmp on Lambda).
func WithTempDir(dir string) Option {
	return func(h *Handler) {
		h.tempDir = dir
	}
}

func New(client S3API, opts ...Option) *Handler {
	h := &Handler{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *Handler) log() observability.StructuredLogger {
	if h.logger != nil {
		return h.logger
	}
	return logger.Logger()
}

// Handle is a cfn.CustomResourceFunction. Copies are additive: objects already at the
// destination are overwritten or left alone, never deleted.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	log := h.log().
		WithRequestID(event.RequestID).
		WithStackID(event.StackID).
		WithResourceID(event.LogicalResourceID)

	var req customresource.Copy
	if err := customresource.Decode(event.ResourceProperties, &req); err != nil {
		return event.PhysicalResourceID, nil, err
	}

	if event.RequestType == cfn.RequestDelete {
		log.Info("copy delete is a no-op", map[string]any{"physical_resource": event.PhysicalResourceID})
		physicalID := event.PhysicalResourceID
		if physicalID == "" {
			physicalID = req.PhysicalID()
		}
		return physicalID, nil, nil
	}

	if err := req.Validate(); err != nil {
		return req.PhysicalID(), nil, err
	}
	loc, err := req.Location()
	if err != nil {
		return req.PhysicalID(), nil, err
	}
	if h.client == nil {
		return req.PhysicalID(), nil, sitetheory.ProvisioningFailure("copy", errors.New("s3 client is nil"))
	}

	log.Info("copy started", map[string]any{
		"request_type":  string(event.RequestType),
		"source_bucket": req.SourceBucket,
		"source_key":    req.SourceKey,
		"zip_subfolder": req.ZipSubfolder,
		"destination":   req.PhysicalID(),
	})

	var copied int
	switch {
	case loc.CopiesBucketRoot():
		copied, err = h.copyBucket(ctx, req)
	case loc.IsZipped():
		copied, err = h.extract(ctx, req, loc)
	default:
		copied, err = h.copyObject(ctx, req)
	}
	if err != nil {
		log.Error("copy failed", map[string]any{"error": err.Error(), "copied": copied})
		return req.PhysicalID(), nil, sitetheory.ProvisioningFailure("copy", err)
	}

	for _, f := range req.Files {
		if err := h.put(ctx, req.DestinationBucket, req.DestinationPrefix+f.Path, []byte(f.Content)); err != nil {
			log.Error("writing generated file failed", map[string]any{"error": err.Error(), "path": f.Path})
			return req.PhysicalID(), nil, sitetheory.ProvisioningFailure("inject", err)
		}
		copied++
	}

	log.Info("copy finished", map[string]any{"objects": copied, "files": len(req.Files)})
	return req.PhysicalID(), map[string]interface{}{
		"DestinationPrefix": req.DestinationPrefix,
		"ObjectCount":       copied,
	}, nil
}

func (h *Handler) copyBucket(ctx context.Context, req customresource.Copy) (int, error) {
	copied := 0
	paginator := s3.NewListObjectsV2Paginator(h.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(req.SourceBucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return copied, fmt.Errorf("list s3://%s: %w", req.SourceBucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			if err := h.copyKey(ctx, req, key, req.DestinationPrefix+key); err != nil {
				return copied, err
			}
			copied++
		}
	}
	return copied, nil
}

func (h *Handler) copyObject(ctx context.Context, req customresource.Copy) (int, error) {
	if err := h.copyKey(ctx, req, req.SourceKey, req.DestinationPrefix+path.Base(req.SourceKey)); err != nil {
		return 0, err
	}
	return 1, nil
}

func (h *Handler) copyKey(ctx context.Context, req customresource.Copy, sourceKey, destKey string) error {
	_, err := h.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(req.DestinationBucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(copySource(req.SourceBucket, sourceKey)),
	})
	if err != nil {
		return fmt.Errorf("copy s3://%s/%s: %w", req.SourceBucket, sourceKey, err)
	}
	return nil
}

func (h *Handler) extract(ctx context.Context, req customresource.Copy, loc artifacts.ArtifactLocation) (int, error) {
	out, err := h.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(req.SourceBucket),
		Key:    aws.String(req.SourceKey),
	})
	if err != nil {
		return 0, fmt.Errorf("get s3://%s/%s: %w", req.SourceBucket, req.SourceKey, err)
	}
	spooled, size, err := h.spool(out.Body)
	_ = out.Body.Close()
	if err != nil {
		return 0, fmt.Errorf("read s3://%s/%s: %w", req.SourceBucket, req.SourceKey, err)
	}
	defer discard(spooled)

	// Entries with insecure names are skipped below by EntryPath.
	archive, err := zip.NewReader(spooled, size)
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && archive != nil) {
		return 0, fmt.Errorf("open archive s3://%s/%s: %w", req.SourceBucket, req.SourceKey, err)
	}

	copied := 0
	for _, entry := range archive.File {
		rel, ok := loc.EntryPath(entry.Name)
		if !ok {
			continue
		}
		content, err := readEntry(entry)
		if err != nil {
			return copied, err
		}
		if err := h.put(ctx, req.DestinationBucket, req.DestinationPrefix+rel, content); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}

// spool streams body into a temporary file, so the archive is read in place instead of being
// held in memory.
func (h *Handler) spool(body io.Reader) (*os.File, int64, error) {
	f, err := os.CreateTemp(h.tempDir, "sitetheory-archive-*.zip")
	if err != nil {
		return nil, 0, err
	}
	size, err := io.Copy(f, body)
	if err != nil {
		discard(f)
		return nil, 0, err
	}
	return f, size, nil
}

func discard(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", entry.Name, err)
	}
	return content, nil
}

func (h *Handler) put(ctx context.Context, bucket, key string, content []byte) error {
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(ContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// ContentType guesses the object content type from its extension.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return defaultContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return defaultContentType
}

func copySource(bucket, key string) string {
	return url.PathEscape(bucket) + "/" + (&url.URL{Path: key}).EscapedPath()
}

package testkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Object is one stored object of the fake.
type S3Object struct {
	Body        []byte
	ContentType string
}

// FakeS3Client is an in-memory S3 holding objects per bucket.
type FakeS3Client struct {
	mu sync.Mutex

	objects map[string]map[string]S3Object

	// PageSize bounds ListObjectsV2 pages; zero means 1000.
	PageSize int

	GetErr  error
	PutErr  error
	CopyErr error
	ListErr error

	Puts   []string
	Copies []string
}

func NewFakeS3Client() *FakeS3Client {
	return &FakeS3Client{objects: map[string]map[string]S3Object{}}
}

// Put stores an object directly.
func (f *FakeS3Client) Put(bucket, key string, body []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store(bucket, key, S3Object{Body: append([]byte(nil), body...), ContentType: contentType})
}

func (f *FakeS3Client) store(bucket, key string, obj S3Object) {
	if f.objects[bucket] == nil {
		f.objects[bucket] = map[string]S3Object{}
	}
	f.objects[bucket][key] = obj
}

// Object returns a stored object.
func (f *FakeS3Client) Object(bucket, key string) (S3Object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket][key]
	return obj, ok
}

// Keys returns the sorted keys of bucket.
func (f *FakeS3Client) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedKeys(bucket)
}

func (f *FakeS3Client) sortedKeys(bucket string) []string {
	keys := make([]string, 0, len(f.objects[bucket]))
	for k := range f.objects[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *FakeS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if params == nil {
		return nil, errors.New("testkit: get object input is nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	obj, ok := f.objects[aws.ToString(params.Bucket)][aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key: " + aws.ToString(params.Key))}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.Body)),
		ContentType:   aws.String(obj.ContentType),
		ContentLength: aws.Int64(int64(len(obj.Body))),
	}, nil
}

func (f *FakeS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if params == nil {
		return nil, errors.New("testkit: put object input is nil")
	}
	var body []byte
	if params.Body != nil {
		read, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = read
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	f.store(bucket, key, S3Object{Body: body, ContentType: aws.ToString(params.ContentType)})
	f.Puts = append(f.Puts, bucket+"/"+key)
	return &s3.PutObjectOutput{}, nil
}

func (f *FakeS3Client) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	if params == nil {
		return nil, errors.New("testkit: copy object input is nil")
	}
	source, err := url.PathUnescape(aws.ToString(params.CopySource))
	if err != nil {
		return nil, err
	}
	srcBucket, srcKey, ok := strings.Cut(source, "/")
	if !ok {
		return nil, fmt.Errorf("testkit: malformed copy source %q", source)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CopyErr != nil {
		return nil, f.CopyErr
	}
	obj, ok := f.objects[srcBucket][srcKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key: " + srcKey)}
	}
	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	f.store(bucket, key, obj)
	f.Copies = append(f.Copies, bucket+"/"+key)
	return &s3.CopyObjectOutput{}, nil
}

func (f *FakeS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if params == nil {
		return nil, errors.New("testkit: list objects input is nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	prefix := aws.ToString(params.Prefix)
	after := aws.ToString(params.ContinuationToken)

	out := &s3.ListObjectsV2Output{Name: params.Bucket}
	for _, key := range f.sortedKeys(aws.ToString(params.Bucket)) {
		if !strings.HasPrefix(key, prefix) || (after != "" && key <= after) {
			continue
		}
		if len(out.Contents) == pageSize {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = out.Contents[len(out.Contents)-1].Key
			break
		}
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(f.objects[aws.ToString(params.Bucket)][key].Body))),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

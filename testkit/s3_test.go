package testkit

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestFakeS3Client_PutGetCopy(t *testing.T) {
	ctx := context.Background()
	client := NewFakeS3Client()

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String("src"),
		Key:         aws.String("dir/a b.txt"),
		Body:        strings.NewReader("hello"),
		ContentType: aws.String("text/plain"),
	}); err != nil {
		t.Fatalf("PutObject returned error: %v", err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String("src"), Key: aws.String("dir/a b.txt")})
	if err != nil {
		t.Fatalf("GetObject returned error: %v", err)
	}
	body, _ := io.ReadAll(out.Body)
	if string(body) != "hello" || aws.ToString(out.ContentType) != "text/plain" {
		t.Fatalf("unexpected object: %q %q", body, aws.ToString(out.ContentType))
	}

	if _, err := client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String("dst"),
		Key:        aws.String("site/a.txt"),
		CopySource: aws.String("src/dir/a%20b.txt"),
	}); err != nil {
		t.Fatalf("CopyObject returned error: %v", err)
	}
	if obj, ok := client.Object("dst", "site/a.txt"); !ok || string(obj.Body) != "hello" {
		t.Fatalf("expected copied object, got %#v", obj)
	}

	_, err = client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String("src"), Key: aws.String("missing")})
	var missing *types.NoSuchKey
	if !errors.As(err, &missing) {
		t.Fatalf("expected NoSuchKey, got %v", err)
	}
}

func TestFakeS3Client_ListPages(t *testing.T) {
	client := NewFakeS3Client()
	client.PageSize = 2
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		client.Put("src", key, []byte(key), "")
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{Bucket: aws.String("src")})
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			t.Fatalf("NextPage returned error: %v", err)
		}
		pages++
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	if pages != 3 || strings.Join(keys, ",") != "a,b,c,d,e" {
		t.Fatalf("unexpected listing: %d pages, %v", pages, keys)
	}
}

func TestFakeS3Client_Errors(t *testing.T) {
	ctx := context.Background()
	client := NewFakeS3Client()
	client.PutErr = context.Canceled

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String("b"), Key: aws.String("k")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected put error, got %v", err)
	}
	if _, err := client.PutObject(ctx, nil); err == nil {
		t.Fatal("expected error for nil input")
	}
	if _, err := client.CopyObject(ctx, &s3.CopyObjectInput{CopySource: aws.String("nokey")}); err == nil {
		t.Fatal("expected error for malformed copy source")
	}
}

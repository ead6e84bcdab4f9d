package remotestore

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Store implements Store against AWS S3 (or an S3-compatible endpoint
// reachable through aws-sdk-go-v2's usual config/credential chain).
type s3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

func newS3Store(ctx context.Context, bucket, rootPrefix string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &s3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: rootPrefix}, nil
}

func (s *s3Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, relKey(*obj.Key, s.prefix))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *s3Store) Open(ctx context.Context, name string) (Object, error) {
	key := s.key(name)

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NoSuchKey
		if errors.As(err, &nf) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	size := int64(0)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return &s3Object{body: resp.Body, size: size}, nil
}

type s3Object struct {
	body io.ReadCloser
	size int64
}

func (o *s3Object) Read(p []byte) (int, error) { return o.body.Read(p) }
func (o *s3Object) Close() error               { return o.body.Close() }
func (o *s3Object) Size() int64                { return o.size }

// relKey strips rootPrefix from a fully-qualified remote key, leaving the
// path relative to the corpus root the way the local cache directory
// mirrors it.
func relKey(key, rootPrefix string) string {
	if rootPrefix == "" {
		return key
	}
	if len(key) > len(rootPrefix) && key[:len(rootPrefix)] == rootPrefix {
		key = key[len(rootPrefix):]
		if len(key) > 0 && key[0] == '/' {
			key = key[1:]
		}
	}
	return key
}

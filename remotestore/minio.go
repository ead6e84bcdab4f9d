package remotestore

import (
	"context"
	"path"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStore implements Store against MinIO or any other S3-compatible
// endpoint, addressed by host rather than the AWS default credential
// chain (grounded in the teacher's separate minio backend for the same
// split: AWS SDK for AWS itself, minio-go for self-hosted endpoints).
type minioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func newMinioStore(endpoint, accessKey, secretKey, bucket, rootPrefix string, useSSL bool) (*minioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStore{client: client, bucket: bucket, prefix: rootPrefix}, nil
}

func (s *minioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *minioStore) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var keys []string

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: fullPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, relKey(obj.Key, s.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *minioStore) Open(ctx context.Context, name string) (Object, error) {
	key := s.key(name)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioErr(err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, translateMinioErr(err)
	}
	return &minioObject{obj: obj, size: info.Size}, nil
}

func translateMinioErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return ErrNotFound
	}
	return err
}

type minioObject struct {
	obj  *minio.Object
	size int64
}

func (o *minioObject) Read(p []byte) (int, error) { return o.obj.Read(p) }
func (o *minioObject) Close() error               { return o.obj.Close() }
func (o *minioObject) Size() int64                { return o.size }

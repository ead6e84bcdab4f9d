package remotestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MinioOptions configures the minio:// scheme. AccessKey/SecretKey fall
// back to the MINIO_ACCESS_KEY/MINIO_SECRET_KEY environment variables
// when empty, mirroring aws-sdk-go-v2's own env-var fallback for s3://.
type MinioOptions struct {
	AccessKey, SecretKey string
	UseSSL               bool
}

// Fetch mirrors a compiled corpus directory addressed by uri into a
// subdirectory of cacheDir and returns the local path, downloading only
// objects missing or size-mismatched locally. Supported schemes:
//
//	s3://bucket/prefix
//	minio://host:port/bucket/prefix
//
// This never deletes local files outside the synced key set; it is a
// warm-the-cache helper, not a mirror with delete semantics.
func Fetch(ctx context.Context, uri, cacheDir string, opts MinioOptions) (string, error) {
	store, rootPrefix, bucket, err := open(ctx, uri, opts)
	if err != nil {
		return "", err
	}

	localDir := filepath.Join(cacheDir, cacheKey(bucket, rootPrefix))
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", err
	}

	keys, err := store.List(ctx, "")
	if err != nil {
		return "", fmt.Errorf("remotestore: list %q: %w", uri, err)
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("remotestore: no objects found under %q", uri)
	}

	for _, key := range keys {
		if err := syncOne(ctx, store, key, localDir); err != nil {
			return "", fmt.Errorf("remotestore: sync %q: %w", key, err)
		}
	}

	return localDir, nil
}

func syncOne(ctx context.Context, store Store, key, localDir string) error {
	localPath := filepath.Join(localDir, filepath.FromSlash(key))

	obj, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer obj.Close()

	if info, err := os.Stat(localPath); err == nil && info.Size() == obj.Size() {
		return nil // already synced
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	tmp := localPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, obj); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, localPath)
}

func open(ctx context.Context, uri string, opts MinioOptions) (store Store, rootPrefix, bucket string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", "", fmt.Errorf("remotestore: invalid uri %q: %w", uri, err)
	}

	switch u.Scheme {
	case "s3":
		bucket = u.Host
		rootPrefix = strings.TrimPrefix(u.Path, "/")
		s, err := newS3Store(ctx, bucket, rootPrefix)
		return s, rootPrefix, bucket, err

	case "minio":
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if parts[0] == "" {
			return nil, "", "", fmt.Errorf("remotestore: minio uri %q missing bucket", uri)
		}
		bucket = parts[0]
		if len(parts) > 1 {
			rootPrefix = parts[1]
		}

		accessKey, secretKey := opts.AccessKey, opts.SecretKey
		if accessKey == "" {
			accessKey = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secretKey == "" {
			secretKey = os.Getenv("MINIO_SECRET_KEY")
		}
		useSSL := opts.UseSSL
		if ssl := u.Query().Get("ssl"); ssl != "" {
			if b, err := strconv.ParseBool(ssl); err == nil {
				useSSL = b
			}
		}

		s, err := newMinioStore(u.Host, accessKey, secretKey, bucket, rootPrefix, useSSL)
		return s, rootPrefix, bucket, err

	default:
		return nil, "", "", fmt.Errorf("remotestore: unsupported scheme %q", u.Scheme)
	}
}

// cacheKey derives a stable, filesystem-safe local directory name from a
// remote location so repeated Fetch calls for the same bucket/prefix
// reuse (and incrementally update) the same local copy.
func cacheKey(bucket, rootPrefix string) string {
	sum := sha1.Sum([]byte(bucket + "/" + rootPrefix))
	return hex.EncodeToString(sum[:8])
}

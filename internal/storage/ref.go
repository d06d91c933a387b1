package storage

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidRef is returned when a file reference cannot be turned into an
// object key.
var ErrInvalidRef = errors.New("invalid file reference")

// ObjectKeyFromRef recovers the canonical object key from a stored file
// reference. Accepted forms:
//
//	notes/unit-07/part-1.pdf                              raw object path
//	gs://bucket/notes/unit-07/part-1.pdf                  bucket URI (gs, s3)
//	https://host/v0/b/bucket/o/notes%2Fpart-1.pdf?alt=... Firebase-style URL
//	https://host/bucket/notes/part-1.pdf?X-Amz-...        path-style presigned URL
//	https://bucket.host/notes/part-1.pdf?X-Amz-...        virtual-host presigned URL
//
// bucket is the store's bucket name; it is stripped when it prefixes the path.
func ObjectKeyFromRef(ref, bucket string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidRef
	}

	var key string
	switch {
	case strings.HasPrefix(ref, "gs://"), strings.HasPrefix(ref, "s3://"):
		rest := ref[strings.Index(ref, "://")+3:]
		i := strings.IndexByte(rest, '/')
		if i < 0 {
			return "", ErrInvalidRef
		}
		key = rest[i+1:]

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", ErrInvalidRef
		}
		p := u.EscapedPath()
		if i := strings.Index(p, "/o/"); i >= 0 {
			key, err = url.PathUnescape(p[i+3:])
			if err != nil {
				return "", ErrInvalidRef
			}
			break
		}
		key, err = url.PathUnescape(strings.TrimPrefix(p, "/"))
		if err != nil {
			return "", ErrInvalidRef
		}
		if bucket != "" && !strings.HasPrefix(u.Host, bucket+".") {
			key = strings.TrimPrefix(key, bucket+"/")
		}

	default:
		key = ref
	}

	return cleanKey(key)
}

// cleanKey rejects traversal segments and strips leading slashes.
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrInvalidRef
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidRef
		}
	}
	if path.Clean("/"+key) != "/"+key {
		return "", ErrInvalidRef
	}
	return key, nil
}

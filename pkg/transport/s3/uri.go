package s3

import (
	"fmt"
	"strings"
)

const Scheme = "s3://"

// ParseURI splits an S3 URI into bucket and key prefix. The prefix has no
// leading or trailing slash.
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", "", fmt.Errorf("invalid S3 URI: must start with %s", Scheme)
	}

	path := strings.TrimPrefix(uri, Scheme)
	parts := strings.SplitN(path, "/", 2)

	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}

	return bucket, prefix, nil
}

// objectKey turns a remote path into an object key.
func objectKey(remotePath string) string {
	return strings.TrimPrefix(strings.ReplaceAll(remotePath, `\`, "/"), "/")
}

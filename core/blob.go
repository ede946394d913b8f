package core

import (
	"context"
	"io"
)

// BlobStore stores uploaded files (homework submissions, attachments).
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader) (ref string, err error)
	DownloadURL(ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

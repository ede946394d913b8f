// Package blobstore keeps uploaded files on the local filesystem.
package blobstore

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

var (
	ErrTooLarge   = errors.New("file exceeds the maximum upload size")
	ErrInvalidRef = errors.New("invalid blob ref")
)

type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

var _ core.BlobStore = (*LocalStore)(nil)

func NewLocalStore(conf *core.Config) (*LocalStore, error) {
	if err := os.MkdirAll(conf.Blob.Root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating blob root")
	}
	return &LocalStore{
		root:    conf.Blob.Root,
		baseURL: strings.TrimSuffix(conf.Blob.BaseURL, "/"),
		maxSize: conf.Blob.MaxFileSize,
	}, nil
}

// Upload stores r under p. A random directory is inserted so that uploads never overwrite each other.
func (s *LocalStore) Upload(ctx context.Context, p string, r io.Reader) (string, error) {
	clean := path.Clean("/" + p)[1:]
	if clean == "" {
		return "", errors.New("empty blob path")
	}
	ref := path.Join(path.Dir(clean), uuid.NewString(), path.Base(clean))

	fp, err := s.filePath(ref)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", errors.Wrap(err, "creating blob directory")
	}
	f, err := os.Create(fp)
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: src})
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing blob")
	}
	return ref, nil
}

func (s *LocalStore) DownloadURL(ref string) (string, error) {
	if _, err := s.filePath(ref); err != nil {
		return "", err
	}
	segments := strings.Split(ref, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	fp, err := s.filePath(ref)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting blob")
	}
	return nil
}

// Open returns the content of a stored blob.
func (s *LocalStore) Open(ref string) (*os.File, error) {
	fp, err := s.filePath(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fp)
	if os.IsNotExist(err) {
		return nil, core.ErrNotFound
	}
	return f, errors.Wrap(err, "opening blob")
}

func (s *LocalStore) filePath(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return "", errors.Wrapf(ErrInvalidRef, "%q", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

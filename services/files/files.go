package files

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"

	"ldserver/api/models"
	"ldserver/api/models/constants/drivers"
)

var ErrNotFound = errors.New("file not found")

// Resolver maps logical registry paths to readable files.
type Resolver interface {
	// Resolve checks existence and returns the physical location.
	Resolve(ctx context.Context, logical string) (string, error)
	Open(ctx context.Context, logical string) (io.ReadCloser, error)
}

func New(ctx context.Context, cfg *models.Config) (Resolver, error) {
	switch cfg.Files.Driver {
	case drivers.FilesLocal, "":
		return NewLocalResolver(cfg.Files.Root), nil
	case drivers.FilesS3:
		return NewS3Resolver(ctx, S3Config{
			Bucket:          cfg.Files.S3Bucket,
			Region:          cfg.Files.S3Region,
			Endpoint:        cfg.Files.S3Endpoint,
			PathStyle:       cfg.Files.S3PathStyle,
			AccessKeyID:     cfg.Files.S3AccessKey,
			SecretAccessKey: cfg.Files.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown file driver %q", cfg.Files.Driver)
	}
}

type gzipReadCloser struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipReadCloser) Close() error {
	g.Reader.Close()
	return g.underlying.Close()
}

type bufferedReadCloser struct {
	*bufio.Reader
	io.Closer
}

// OpenText opens a logical path, transparently inflating gzip and bgzip
// content.
func OpenText(ctx context.Context, r Resolver, logical string) (io.ReadCloser, error) {
	rc, err := r.Open(ctx, logical)
	if err != nil {
		return nil, err
	}

	buffered := bufio.NewReader(rc)
	magic, _ := buffered.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("inflating %s: %w", logical, err)
		}
		return &gzipReadCloser{Reader: gz, underlying: rc}, nil
	}
	return bufferedReadCloser{Reader: buffered, Closer: rc}, nil
}

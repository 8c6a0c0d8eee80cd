// Package storage opens inputs and writes outputs addressed by location
// strings: plain file system paths or s3://bucket/key URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

var (
	// ErrBadLocation is returned for a location that cannot be parsed.
	ErrBadLocation = errors.New("storage: malformed location")
	// ErrNoS3 is returned when an s3:// location is used without S3 settings.
	ErrNoS3 = errors.New("storage: s3 location used but no s3 endpoint is configured")
)

// Location addresses an object. Bucket is empty for local paths.
type Location struct {
	Bucket string
	Key    string
}

// Remote reports whether the location points into a bucket.
func (l Location) Remote() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.Remote() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseLocation parses a local path or an s3://bucket/key URL.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrBadLocation)
	}
	rest, ok := strings.CutPrefix(s, "s3://")
	if !ok {
		return Location{Key: s}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || strings.Trim(key, "/") == "" {
		return Location{}, fmt.Errorf("%w: %q needs both bucket and key", ErrBadLocation, s)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Backend reads and writes objects of one kind of location.
type Backend interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)
	Write(ctx context.Context, loc Location, data []byte) error
}

// Storage dispatches locations to the local or the S3 backend.
type Storage struct {
	local  Backend
	remote Backend
}

// New creates a Storage. remote may be nil, in which case s3:// locations
// fail with ErrNoS3.
func New(local, remote Backend) *Storage {
	if local == nil {
		local = Local{}
	}
	return &Storage{local: local, remote: remote}
}

func (s *Storage) backend(loc Location) (Backend, error) {
	if !loc.Remote() {
		return s.local, nil
	}
	if s.remote == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoS3, loc)
	}
	return s.remote, nil
}

// Open opens the object at location for reading.
func (s *Storage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	b, err := s.backend(loc)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, loc)
}

// Write stores data at location, replacing any existing object.
func (s *Storage) Write(ctx context.Context, location string, data []byte) error {
	loc, err := ParseLocation(location)
	if err != nil {
		return err
	}
	b, err := s.backend(loc)
	if err != nil {
		return err
	}
	return b.Write(ctx, loc, data)
}

func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".geojson":
		return "application/geo+json"
	case ".asc":
		return "text/plain"
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

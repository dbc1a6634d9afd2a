package uploads

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/bryanwahyu/juriscope/internal/application"
	"github.com/bryanwahyu/juriscope/internal/domain/clauses"
	domain "github.com/bryanwahyu/juriscope/internal/domain/uploads"
)

// Service validates and stores contract files. Store is optional; without it
// only plain text uploads are accepted and nothing is persisted.
type Service struct {
	Store  domain.ObjectStore
	Clock  application.Clock
	Logger *slog.Logger
}

// Accept stores one uploaded file. Plain text is decoded and split into
// blocks so the client can send them to document analysis.
func (s *Service) Accept(ctx context.Context, filename string, data []byte) (*domain.Upload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := domain.ContentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
	}
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if len(data) > domain.MaxSize {
		return nil, domain.ErrTooLarge
	}
	if s.Store == nil && ext != ".txt" {
		return nil, domain.ErrNoStorage
	}

	now := s.now()
	id := uuid.New().String()
	up := &domain.Upload{
		ID:          id,
		Filename:    filepath.Base(filename),
		Key:         fmt.Sprintf("contracts/%s/%s%s", now.UTC().Format("2006/01/02"), id, ext),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   now,
	}

	switch ext {
	case ".txt":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrUnsupportedType)
		}
		up.Text = strings.TrimSpace(string(data))
		up.Blocks = clauses.SplitBlocks(up.Text)
	case ".pdf":
		up.PageCount = s.pageCount(data)
	}

	if s.Store == nil {
		up.Key = ""
		return up, nil
	}

	url, err := s.Store.Put(ctx, up.Key, bytes.NewReader(data), up.Size, contentType)
	if err != nil {
		return nil, err
	}
	up.URL = url
	s.log().Info("contract stored", "id", id, "key", up.Key, "size", up.Size)
	return up, nil
}

func (s *Service) pageCount(data []byte) *int {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		s.log().Warn("failed to read PDF page count", "error", err)
		return nil
	}
	return &n
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

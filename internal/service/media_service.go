package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// Sentinel errors for uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Allowed document MIME types.
var allowedMIMETypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"text/csv":        ".csv",
}

// MediaService stores shared documents: bytes on local disk under a UUID
// filename, metadata in Postgres.
type MediaService struct {
	cfg      *config.Config
	fileRepo *repository.FileRepository
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, fileRepo *repository.FileRepository) *MediaService {
	return &MediaService{cfg: cfg, fileRepo: fileRepo}
}

// SaveUpload validates and stores an uploaded document and records its metadata.
func (s *MediaService) SaveUpload(ctx context.Context, institutionCode, uploadedBy string, category model.FileCategory, targetBatch *string, file multipart.File, header *multipart.FileHeader) (*model.SharedFile, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.cfg.UploadDir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	meta := &model.SharedFile{
		InstitutionCode: institutionCode,
		Name:            header.Filename,
		MimeType:        contentType,
		SizeBytes:       header.Size,
		Path:            "/uploads/" + filename,
		Category:        category,
		TargetBatch:     targetBatch,
		UploadedBy:      uploadedBy,
	}
	if err := s.fileRepo.Create(ctx, meta); err != nil {
		// Metadata failed; do not leave orphaned bytes behind.
		os.Remove(destPath)
		return nil, fmt.Errorf("record file: %w", err)
	}
	return meta, nil
}

// ListForBatch lists files visible to a student's batch.
func (s *MediaService) ListForBatch(ctx context.Context, institutionCode, batch string) ([]model.SharedFile, error) {
	return s.fileRepo.ListForBatch(ctx, institutionCode, batch)
}

// ListByInstitution lists all files of an institution.
func (s *MediaService) ListByInstitution(ctx context.Context, institutionCode string) ([]model.SharedFile, error) {
	return s.fileRepo.ListByInstitution(ctx, institutionCode)
}

// Delete removes a file's metadata and its bytes.
func (s *MediaService) Delete(ctx context.Context, id uuid.UUID) error {
	meta, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return err
	}

	filename := strings.TrimPrefix(meta.Path, "/uploads/")
	if filename != "" && filename != meta.Path {
		_ = os.Remove(filepath.Join(s.cfg.UploadDir, filename))
	}
	return nil
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	return types
}

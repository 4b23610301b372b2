package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

// FileRepository handles shared-file metadata access. Bytes live on disk.
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// Create inserts file metadata after the bytes were written to disk.
func (r *FileRepository) Create(ctx context.Context, f *model.SharedFile) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO files (institution_code, name, mime_type, size_bytes, path, category, target_batch, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, uploaded_at`,
		f.InstitutionCode, f.Name, f.MimeType, f.SizeBytes, f.Path, f.Category, f.TargetBatch, f.UploadedBy,
	).Scan(&f.ID, &f.UploadedAt)
}

// GetByID retrieves one file's metadata.
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SharedFile, error) {
	f := &model.SharedFile{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, institution_code, name, mime_type, size_bytes, path, category, target_batch, uploaded_by, uploaded_at
		 FROM files
		 WHERE id = $1`, id,
	).Scan(&f.ID, &f.InstitutionCode, &f.Name, &f.MimeType, &f.SizeBytes, &f.Path,
		&f.Category, &f.TargetBatch, &f.UploadedBy, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListForBatch retrieves files visible to one batch: batch-targeted rows plus
// institution-wide ones, newest first.
func (r *FileRepository) ListForBatch(ctx context.Context, institutionCode, batch string) ([]model.SharedFile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, name, mime_type, size_bytes, path, category, target_batch, uploaded_by, uploaded_at
		 FROM files
		 WHERE institution_code = $1 AND (target_batch IS NULL OR target_batch = $2)
		 ORDER BY uploaded_at DESC`,
		institutionCode, batch,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

// ListByInstitution retrieves all files of an institution, newest first.
func (r *FileRepository) ListByInstitution(ctx context.Context, institutionCode string) ([]model.SharedFile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, institution_code, name, mime_type, size_bytes, path, category, target_batch, uploaded_by, uploaded_at
		 FROM files
		 WHERE institution_code = $1
		 ORDER BY uploaded_at DESC`,
		institutionCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

// Delete removes file metadata. The caller unlinks the bytes.
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	return err
}

func scanFiles(rows pgx.Rows) ([]model.SharedFile, error) {
	var files []model.SharedFile
	for rows.Next() {
		var f model.SharedFile
		if err := rows.Scan(&f.ID, &f.InstitutionCode, &f.Name, &f.MimeType, &f.SizeBytes,
			&f.Path, &f.Category, &f.TargetBatch, &f.UploadedBy, &f.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	document "veridoc/internal/document/models"
	"veridoc/internal/verification/models"
)

//go:embed schema.sql
var schema string

// PostgresStore persists verification records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the schema exists and returns the store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is required")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure verification schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

const insertRecord = `
INSERT INTO verifications (
    id, status, flagged_reason,
    full_name, national_id, date_of_birth, phone_number, address,
    extracted, matched_fields, similar_matches, validation_errors,
    face_similarity, face_backend, image_hash,
    request_id, client_ip, device, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

func (s *PostgresStore) Save(ctx context.Context, record models.VerificationRecord) error {
	extracted, err := json.Marshal(record.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}
	similar, err := json.Marshal(record.SimilarMatches)
	if err != nil {
		return fmt.Errorf("marshal similar matches: %w", err)
	}

	matched := record.MatchedFields
	if matched == nil {
		matched = []string{}
	}
	validationErrs := record.ValidationErrors
	if validationErrs == nil {
		validationErrs = []string{}
	}

	_, err = s.pool.Exec(ctx, insertRecord,
		record.ID, string(record.Status), string(record.FlaggedReason),
		record.Claim.FullName, document.NormalizeID(record.Claim.NationalID),
		record.Claim.DateOfBirth, record.Claim.PhoneNumber, record.Claim.Address,
		extracted, matched, similar, validationErrs,
		record.FaceSimilarity, record.FaceBackend, record.ImageHash,
		record.RequestID, record.ClientIP, record.Device, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

const selectColumns = `
    id, status, flagged_reason,
    full_name, national_id, date_of_birth, phone_number, address,
    extracted, matched_fields, similar_matches, validation_errors,
    face_similarity, face_backend, image_hash,
    request_id, client_ip, device, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.VerificationRecord, error) {
	row := s.pool.QueryRow(ctx, "SELECT"+selectColumns+" FROM verifications WHERE id = $1", id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VerificationRecord{}, ErrNotFound
		}
		return models.VerificationRecord{}, fmt.Errorf("find verification by id: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) FindByIDNumber(ctx context.Context, idNumber string) ([]models.VerificationRecord, error) {
	return s.query(ctx,
		"SELECT"+selectColumns+" FROM verifications WHERE national_id = $1 ORDER BY created_at DESC",
		document.NormalizeID(idNumber))
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) ([]models.VerificationRecord, error) {
	if phone == "" {
		return nil, nil
	}
	return s.query(ctx,
		"SELECT"+selectColumns+" FROM verifications WHERE phone_number = $1 ORDER BY created_at DESC",
		phone)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]models.VerificationRecord, error) {
	query := "SELECT" + selectColumns + " FROM verifications WHERE 1=1"
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) Stats(ctx context.Context) ([]models.StatsBucket, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT status, COUNT(*) FROM verifications GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("query verification stats: %w", err)
	}
	defer rows.Close()

	var buckets []models.StatsBucket
	for rows.Next() {
		var bucket models.StatsBucket
		var status string
		if err := rows.Scan(&status, &bucket.Count); err != nil {
			return nil, fmt.Errorf("scan verification stats: %w", err)
		}
		bucket.Status = models.Status(status)
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]models.VerificationRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var records []models.VerificationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (models.VerificationRecord, error) {
	var (
		record            models.VerificationRecord
		status, reason    string
		extracted, simRaw []byte
	)
	err := row.Scan(
		&record.ID, &status, &reason,
		&record.Claim.FullName, &record.Claim.NationalID,
		&record.Claim.DateOfBirth, &record.Claim.PhoneNumber, &record.Claim.Address,
		&extracted, &record.MatchedFields, &simRaw, &record.ValidationErrors,
		&record.FaceSimilarity, &record.FaceBackend, &record.ImageHash,
		&record.RequestID, &record.ClientIP, &record.Device, &record.CreatedAt,
	)
	if err != nil {
		return models.VerificationRecord{}, err
	}
	record.Status = models.Status(status)
	record.FlaggedReason = models.FlaggedReason(reason)
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &record.Extracted); err != nil {
			return models.VerificationRecord{}, fmt.Errorf("unmarshal extracted fields: %w", err)
		}
	}
	if len(simRaw) > 0 {
		if err := json.Unmarshal(simRaw, &record.SimilarMatches); err != nil {
			return models.VerificationRecord{}, fmt.Errorf("unmarshal similar matches: %w", err)
		}
	}
	return record, nil
}

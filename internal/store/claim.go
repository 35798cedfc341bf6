package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/claimlab/apiserver/types"
)

const claimColumns = `
		c.id, c.user_id, c.title, c.description, c.amount, c.status, c.category,
		c.receipt_key, c.receipt_content_type, c.created_at, c.updated_at,
		u.username AS owner_name`

// ClaimRepository handles persistence for claims.
type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Get fetches a claim by primary key with no ownership predicate.
func (r *ClaimRepository) Get(ctx context.Context, id int) (types.Claim, error) {
	const query = `
		SELECT` + claimColumns + `
		FROM claims c
		LEFT JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`
	claim, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Claim{}, ErrNotFound
		}
		return types.Claim{}, err
	}
	return claim, nil
}

// ListVisible returns the user's own claims plus every claim whose
// category is exactly "shared".
func (r *ClaimRepository) ListVisible(ctx context.Context, userID int) ([]types.Claim, error) {
	const query = `
		SELECT` + claimColumns + `
		FROM claims c
		LEFT JOIN users u ON c.user_id = u.id
		WHERE c.user_id = $1 OR c.category = $2
		ORDER BY c.created_at DESC, c.id DESC`
	return r.list(ctx, query, userID, types.SharedCategory)
}

// ListAll returns every claim.
func (r *ClaimRepository) ListAll(ctx context.Context) ([]types.Claim, error) {
	const query = `
		SELECT` + claimColumns + `
		FROM claims c
		LEFT JOIN users u ON c.user_id = u.id
		ORDER BY c.created_at DESC, c.id DESC`
	return r.list(ctx, query)
}

func (r *ClaimRepository) list(ctx context.Context, query string, args ...any) ([]types.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := make([]types.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *ClaimRepository) Create(ctx context.Context, claim types.Claim) (types.Claim, error) {
	now := time.Now().UTC()
	claim.CreatedAt = now
	claim.UpdatedAt = now
	if claim.Status == "" {
		claim.Status = types.ClaimStatusPending
	}

	const query = `
		INSERT INTO claims (user_id, title, description, amount, status, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		claim.UserID,
		claim.Title,
		claim.Description,
		claim.Amount,
		claim.Status,
		claim.Category,
		claim.CreatedAt,
		claim.UpdatedAt,
	).Scan(&claim.ID); err != nil {
		return types.Claim{}, err
	}
	return claim, nil
}

// UpdateOwned overwrites a claim only when it belongs to userID.
// ErrNotFound covers both a missing id and a foreign owner.
func (r *ClaimRepository) UpdateOwned(ctx context.Context, id, userID int, changes types.ClaimChanges) error {
	const query = `
		UPDATE claims
		SET title = $1,
			description = $2,
			amount = $3,
			category = $4,
			updated_at = $5
		WHERE id = $6 AND user_id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		changes.Title,
		changes.Description,
		changes.Amount,
		changes.Category,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// SetReceiptOwned records the receipt object for a claim owned by userID.
func (r *ClaimRepository) SetReceiptOwned(ctx context.Context, id, userID int, key, contentType string) error {
	const query = `
		UPDATE claims
		SET receipt_key = $1,
			receipt_content_type = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(ctx, query, key, contentType, time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Delete removes a claim by id with no ownership predicate.
func (r *ClaimRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM claims WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (types.Claim, error) {
	var claim types.Claim
	var status sql.NullString
	err := row.Scan(
		&claim.ID,
		&claim.UserID,
		&claim.Title,
		&claim.Description,
		&claim.Amount,
		&status,
		&claim.Category,
		&claim.ReceiptKey,
		&claim.ReceiptContentType,
		&claim.CreatedAt,
		&claim.UpdatedAt,
		&claim.OwnerName,
	)
	if err != nil {
		return types.Claim{}, err
	}
	claim.Status = status.String
	return claim, nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

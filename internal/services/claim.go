package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/claimlab/apiserver/internal/auth"
	"github.com/claimlab/apiserver/internal/policy"
	"github.com/claimlab/apiserver/internal/storage"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
	"go.uber.org/zap"
)

// ClaimRepository defines persistence operations for claims.
type ClaimRepository interface {
	Get(ctx context.Context, id int) (types.Claim, error)
	ListVisible(ctx context.Context, userID int) ([]types.Claim, error)
	ListAll(ctx context.Context) ([]types.Claim, error)
	Create(ctx context.Context, claim types.Claim) (types.Claim, error)
	UpdateOwned(ctx context.Context, id, userID int, changes types.ClaimChanges) error
	SetReceiptOwned(ctx context.Context, id, userID int, key, contentType string) error
	Delete(ctx context.Context, id int) error
}

// ReceiptStore keeps receipt files outside the database.
type ReceiptStore interface {
	Configured() bool
	Upload(ctx context.Context, claimID int, filename string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// EventPublisher receives claim lifecycle events.
type EventPublisher interface {
	PublishClaimEvent(ctx context.Context, event types.ClaimEvent) error
}

type ClaimInput struct {
	Title       string `validate:"required"`
	Description *string
	Amount      float64 `validate:"required"`
	Category    *string
}

type ReceiptUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ClaimService encapsulates claim use-cases. Row predicates come from
// policy.Rules.
type ClaimService struct {
	repo     ClaimRepository
	receipts ReceiptStore
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewClaimService wires the claim use-cases. receipts and events may be nil.
func NewClaimService(repo ClaimRepository, receipts ReceiptStore, events EventPublisher, logger *zap.Logger) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimService{
		repo:     repo,
		receipts: receipts,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ClaimService) List(ctx context.Context, p auth.Principal) ([]types.Claim, error) {
	rows := policy.For(policy.ListClaims).Rows
	switch rows {
	case policy.OwnOrShared:
		return s.repo.ListVisible(ctx, p.ID)
	case policy.Any:
		return s.repo.ListAll(ctx)
	default:
		return nil, fmt.Errorf("list claims: unsupported row scope %s", rows)
	}
}

func (s *ClaimService) Get(ctx context.Context, p auth.Principal, id int) (types.Claim, error) {
	return s.scopedGet(ctx, policy.ReadClaim, p, id)
}

// Create files a claim owned by p. A missing category becomes "Other".
func (s *ClaimService) Create(ctx context.Context, p auth.Principal, in ClaimInput) (types.Claim, error) {
	if err := validate.Struct(in); err != nil {
		return types.Claim{}, ErrMissingFields
	}

	category := types.DefaultCategory
	if in.Category != nil && *in.Category != "" {
		category = *in.Category
	}

	claim, err := s.repo.Create(ctx, types.Claim{
		UserID:      p.ID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		Status:      types.ClaimStatusPending,
		Category:    &category,
	})
	if err != nil {
		return types.Claim{}, fmt.Errorf("create claim: %w", err)
	}

	s.publish(ctx, types.EventClaimCreated, claim.ID, p)
	return claim, nil
}

// Update overwrites title, description, amount and category of a claim
// owned by p. Nil fields are written as NULL.
func (s *ClaimService) Update(ctx context.Context, p auth.Principal, id int, changes types.ClaimChanges) error {
	if err := s.repo.UpdateOwned(ctx, id, p.ID, changes); err != nil {
		return fmt.Errorf("update claim %d: %w", id, err)
	}
	s.publish(ctx, types.EventClaimUpdated, id, p)
	return nil
}

func (s *ClaimService) ListAll(ctx context.Context) ([]types.Claim, error) {
	return s.repo.ListAll(ctx)
}

// Delete removes any claim by id.
func (s *ClaimService) Delete(ctx context.Context, p auth.Principal, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete claim %d: %w", id, err)
	}
	s.publish(ctx, types.EventClaimDeleted, id, p)
	return nil
}

// AttachReceipt uploads a receipt for a claim owned by p and records its key.
func (s *ClaimService) AttachReceipt(ctx context.Context, p auth.Principal, id int, upload ReceiptUpload) (string, error) {
	if s.receipts == nil || !s.receipts.Configured() {
		return "", storage.ErrNotConfigured
	}
	claim, err := s.scopedGet(ctx, policy.AttachReceipt, p, id)
	if err != nil {
		return "", err
	}

	key, err := s.receipts.Upload(ctx, id, upload.Filename, upload.Body, upload.Size, upload.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload receipt for claim %d: %w", id, err)
	}
	if err := s.repo.SetReceiptOwned(ctx, id, p.ID, key, upload.ContentType); err != nil {
		s.removeReceipt(ctx, key)
		return "", fmt.Errorf("record receipt for claim %d: %w", id, err)
	}
	if claim.ReceiptKey != nil && *claim.ReceiptKey != "" && *claim.ReceiptKey != key {
		s.removeReceipt(ctx, *claim.ReceiptKey)
	}

	s.publish(ctx, types.EventClaimReceiptAttached, id, p)
	return key, nil
}

// Receipt opens the receipt of claim id and returns its stored content type.
func (s *ClaimService) Receipt(ctx context.Context, p auth.Principal, id int) (io.ReadCloser, string, error) {
	if s.receipts == nil || !s.receipts.Configured() {
		return nil, "", storage.ErrNotConfigured
	}
	claim, err := s.scopedGet(ctx, policy.ReadReceipt, p, id)
	if err != nil {
		return nil, "", err
	}
	if claim.ReceiptKey == nil || *claim.ReceiptKey == "" {
		return nil, "", ErrNoReceipt
	}

	body, err := s.receipts.Open(ctx, *claim.ReceiptKey)
	if err != nil {
		return nil, "", fmt.Errorf("open receipt for claim %d: %w", id, err)
	}
	contentType := "application/octet-stream"
	if claim.ReceiptContentType != nil && *claim.ReceiptContentType != "" {
		contentType = *claim.ReceiptContentType
	}
	return body, contentType, nil
}

// scopedGet loads claim id and applies the row scope of op. A claim outside
// the scope is reported as store.ErrNotFound.
func (s *ClaimService) scopedGet(ctx context.Context, op policy.Operation, p auth.Principal, id int) (types.Claim, error) {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Claim{}, err
	}
	if !inScope(policy.For(op).Rows, p, claim) {
		return types.Claim{}, store.ErrNotFound
	}
	return claim, nil
}

func inScope(rows policy.RowScope, p auth.Principal, claim types.Claim) bool {
	switch rows {
	case policy.Any:
		return true
	case policy.Owner:
		return claim.UserID == p.ID
	case policy.OwnOrShared:
		return claim.UserID == p.ID || (claim.Category != nil && *claim.Category == types.SharedCategory)
	default:
		return false
	}
}

// removeReceipt deletes an object that no claim row points at any more.
func (s *ClaimService) removeReceipt(ctx context.Context, key string) {
	if err := s.receipts.Remove(ctx, key); err != nil {
		s.logger.Warn("receipt not removed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ClaimService) publish(ctx context.Context, eventType string, claimID int, actor auth.Principal) {
	if s.events == nil {
		return
	}
	event := types.ClaimEvent{
		Type:          eventType,
		ClaimID:       claimID,
		ActorID:       actor.ID,
		ActorUsername: actor.Username,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.PublishClaimEvent(ctx, event); err != nil {
		s.logger.Warn("claim event not published",
			zap.String("type", eventType),
			zap.Int("claim_id", claimID),
			zap.Error(err),
		)
	}
}

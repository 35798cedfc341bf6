package types

import "time"

const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"

	// SharedCategory makes a claim visible in every user's claim list.
	SharedCategory = "shared"

	// DefaultCategory is applied on create when no category is supplied.
	DefaultCategory = "Other"
)

// Claim is an expense claim filed by a user.
type Claim struct {
	// ID is the unique identifier of the claim.
	ID int `json:"id" db:"id"`

	// UserID references the owning user. It is always the creator's id.
	UserID int `json:"user_id" db:"user_id"`

	Title string `json:"title" db:"title"`

	// Description is free-form text stored and returned as-is; clients
	// render it as markup.
	Description *string `json:"description" db:"description"`

	Amount float64 `json:"amount" db:"amount"`

	// Status is one of pending, approved or rejected.
	Status string `json:"status" db:"status"`

	// Category is a free-form label. The literal "shared" widens list
	// visibility to all users.
	Category *string `json:"category" db:"category"`

	// ReceiptKey is the object storage key of the attached receipt, if any.
	ReceiptKey *string `json:"receipt_key" db:"receipt_key"`

	// ReceiptContentType is the content type supplied at upload time.
	ReceiptContentType *string `json:"receipt_content_type" db:"receipt_content_type"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// OwnerName is the owner's username, joined in read views.
	OwnerName *string `json:"owner_name,omitempty" db:"owner_name"`
}

// ClaimChanges carries the columns an update overwrites. Nil pointers are
// written as NULL.
type ClaimChanges struct {
	Title       *string
	Description *string
	Amount      *float64
	Category    *string
}

package db

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the password every seeded account is hashed from.
const SeedPassword = "password123"

type seedUser struct {
	username string
	email    string
	role     string
}

type seedClaim struct {
	owner       string
	title       string
	description string
	amount      float64
	status      string
	category    string
}

var seedUsers = []seedUser{
	{"admin", "admin@claimmanager.com", "admin"},
	{"alice", "alice@company.com", "user"},
	{"bob", "bob@company.com", "user"},
}

var seedCategories = [][2]string{
	{"Travel", "Travel and transportation expenses"},
	{"Meals", "Food and dining expenses"},
	{"Office Supplies", "Office equipment and supplies"},
	{"Training", "Professional development and training"},
	{"Other", "Miscellaneous expenses"},
}

var seedClaims = []seedClaim{
	{"admin", "Admin System Upgrade", "Server hardware upgrade for production", 5000.00, "approved", "Office Supplies"},
	{"admin", "Security Training", "Penetration testing course certification", 1200.00, "approved", "Training"},
	{"alice", "Alice Personal Travel", "Personal vacation to Hawaii", 2500.00, "pending", "Travel"},
	{"alice", "Alice Office Supplies", "New laptop for remote work", 1200.00, "approved", "Office Supplies"},
	{"alice", "Alice Conference", "Tech conference in San Francisco", 800.00, "pending", "Training"},
	{"bob", "Bob Conference Trip", "Security conference in Las Vegas", 1800.00, "pending", "Travel"},
	{"bob", "Bob Office Chair", "Ergonomic office chair for home office", 299.99, "approved", "Office Supplies"},
	{"bob", "Bob Training", "Cybersecurity certification course", 1500.00, "pending", "Training"},
	{"alice", "Team Meeting Lunch", "Monthly team building lunch", 85.50, "pending", "shared"},
	{"bob", "Company Retreat", "Annual company retreat expenses", 500.00, "pending", "shared"},
}

// Seed loads the workshop accounts, categories and sample claims in one
// transaction. Existing users and categories are kept; claims are replaced.
func Seed(ctx context.Context, conn *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const userQuery = `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`
	for _, u := range seedUsers {
		if _, err := tx.ExecContext(ctx, userQuery, u.username, u.email, string(hash), u.role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	const categoryQuery = `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	for _, c := range seedCategories {
		if _, err := tx.ExecContext(ctx, categoryQuery, c[0], c[1]); err != nil {
			return fmt.Errorf("seed category %s: %w", c[0], err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM claims`); err != nil {
		return fmt.Errorf("clear claims: %w", err)
	}

	ids := make(map[string]int, len(seedUsers))
	for _, u := range seedUsers {
		var id int
		if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, u.username).Scan(&id); err != nil {
			return fmt.Errorf("resolve user %s: %w", u.username, err)
		}
		ids[u.username] = id
	}

	const claimQuery = `
		INSERT INTO claims (user_id, title, description, amount, status, category)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, c := range seedClaims {
		if _, err := tx.ExecContext(ctx, claimQuery, ids[c.owner], c.title, c.description, c.amount, c.status, c.category); err != nil {
			return fmt.Errorf("seed claim %q: %w", c.title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

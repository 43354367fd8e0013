package postgres

import (
	"database/sql"
	"fmt"

	"memchat/internal/logger"
	"memchat/internal/repository/db"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, email, password_hash, is_premium, memory_enabled, normal_message_count, premium_message_count, created_at`

// CreateUser creates a new user with hashed password
func (p *PostgresDB) CreateUser(email, password string) (*db.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	query := `
	INSERT INTO users (id, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`

	err = p.conn.QueryRow(query, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("email already registered")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"email": email, "user_id": user.ID}).Info("Created new user")
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (p *PostgresDB) GetUserByEmail(email string) (*db.User, error) {
	var user db.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := p.conn.QueryRow(query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsPremium, &user.MemoryEnabled,
		&user.NormalMessageCount, &user.PremiumMessageCount, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by id
func (p *PostgresDB) GetUserByID(id string) (*db.User, error) {
	var user db.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := p.conn.QueryRow(query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsPremium, &user.MemoryEnabled,
		&user.NormalMessageCount, &user.PremiumMessageCount, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// IncrementMessageCount atomically bumps the usage counter for one tier.
// The increment runs in SQL rather than read-modify-write so concurrent
// turns by the same user never lose updates.
func (p *PostgresDB) IncrementMessageCount(userID, tier string) error {
	var query string
	switch tier {
	case db.TierPremium:
		query = `UPDATE users SET premium_message_count = premium_message_count + 1 WHERE id = $1`
	case db.TierNormal:
		query = `UPDATE users SET normal_message_count = normal_message_count + 1 WHERE id = $1`
	default:
		return fmt.Errorf("unknown usage tier: %s", tier)
	}

	if _, err := p.conn.Exec(query, userID); err != nil {
		return fmt.Errorf("error incrementing %s message count: %w", tier, err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "tier": tier}).Debug("Incremented message count")
	return nil
}

// VerifyPassword checks if the provided password matches the user's hashed password
func VerifyPassword(user *db.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

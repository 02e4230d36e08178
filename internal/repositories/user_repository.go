package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mentei-messaging/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads account projections and owns the presence flags.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.User, error)
	SetOnline(ctx context.Context, userID int, online bool) error
	ResetAllOnline(ctx context.Context) error
	PrivatePeers(ctx context.Context, userID int) ([]int, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, is_pro, is_active, is_online, last_seen`

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers fetches multiple users in one query.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)
	var users []models.User
	err = r.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// SetOnline records the presence flag. Going offline also stamps last_seen.
func (r *UserRepo) SetOnline(ctx context.Context, userID int, online bool) error {
	if online {
		_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = TRUE WHERE id=$1`, userID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = FALSE, last_seen = NOW() WHERE id=$1`, userID)
	return err
}

// ResetAllOnline marks every user offline. Run at startup so the store is
// authoritative after a restart.
func (r *UserRepo) ResetAllOnline(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = FALSE WHERE is_online`)
	return err
}

// PrivatePeers returns the distinct counterpart ids across the user's
// private conversations. Used for presence fan-out.
func (r *UserRepo) PrivatePeers(ctx context.Context, userID int) ([]int, error) {
	query := `SELECT DISTINCT CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END AS peer
        FROM messages
        WHERE NOT is_global AND (sender_id=$1 OR receiver_id=$1)`
	var peers []int
	err := r.db.SelectContext(ctx, &peers, query, userID)
	return peers, err
}

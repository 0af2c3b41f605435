package store

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/arbordev/arbor/internal/models"
)

var (
	// ErrNotFound is returned when the targeted user id has no row.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when a create or update would reuse a
	// username that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidParent is returned when a parent reference does not resolve
	// to an existing user.
	ErrInvalidParent = errors.New("parent user does not exist")
)

// UserPatch enumerates the updatable fields of a user record. A nil field
// leaves the stored value untouched. Only hashes cross this boundary; any
// re-hashing of plaintext happens in the caller.
type UserPatch struct {
	Username     *string
	PasswordHash *string
	ParentUserID *string
}

// UserStore owns persistence of user records. All mutations run inside a
// transaction so the uniqueness and parent-existence checks are atomic with
// the write they guard.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. The id is generated here and never reused. A
// duplicate username surfaces as ErrDuplicateUsername via the UNIQUE index,
// so of two racing creates exactly one wins.
func (s *UserStore) Create(username, passwordHash string, parentUserID *string) (models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	if parentUserID != nil {
		if err := parentExists(tx, *parentUserID); err != nil {
			return models.User{}, err
		}
	}

	id := uuid.New().String()
	_, err = tx.Exec("INSERT INTO users(id, username, password_hash, parent_user_id) VALUES(?, ?, ?, ?)",
		id, username, passwordHash, parentUserID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}

	// Read the row back inside the transaction; a concurrent delete after
	// commit must not turn a successful create into an error.
	user, err := getByIDTx(tx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByID retrieves a single user by id, without the password hash.
func (s *UserStore) GetByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT id, username, parent_user_id, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

func getByIDTx(tx *sql.Tx, id string) (models.User, error) {
	row := tx.QueryRow("SELECT id, username, parent_user_id, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetByUsername retrieves a single user by username, including the password
// hash. This is the sign-in lookup; callers must not leak the hash.
func (s *UserStore) GetByUsername(username string) (models.User, error) {
	var user models.User
	var parent sql.NullString
	row := s.db.QueryRow("SELECT id, username, password_hash, parent_user_id, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &parent, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if parent.Valid {
		user.ParentUserID = &parent.String
	}
	return user, nil
}

// Update applies a patch field by field inside one transaction. The parent
// check runs in the same transaction as the write, so a parent deleted by a
// concurrent request still surfaces as ErrInvalidParent rather than a
// dangling reference.
func (s *UserStore) Update(id string, patch UserPatch) (models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow("SELECT 1 FROM users WHERE id = ?", id).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	if patch.ParentUserID != nil {
		if err := parentExists(tx, *patch.ParentUserID); err != nil {
			return models.User{}, err
		}
	}

	if patch.Username != nil {
		if _, err := tx.Exec("UPDATE users SET username = ? WHERE id = ?", *patch.Username, id); err != nil {
			if isUniqueViolation(err) {
				return models.User{}, ErrDuplicateUsername
			}
			return models.User{}, err
		}
	}
	if patch.PasswordHash != nil {
		if _, err := tx.Exec("UPDATE users SET password_hash = ? WHERE id = ?", *patch.PasswordHash, id); err != nil {
			return models.User{}, err
		}
	}
	if patch.ParentUserID != nil {
		if _, err := tx.Exec("UPDATE users SET parent_user_id = ? WHERE id = ?", *patch.ParentUserID, id); err != nil {
			return models.User{}, err
		}
	}

	user, err := getByIDTx(tx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Delete removes a user. Deleting an unknown id is ErrNotFound.
func (s *UserStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every user without password hashes. The order is fixed by
// creation time with id as tiebreak, so repeated calls over unchanged data
// scan identically.
func (s *UserStore) ListAll() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, username, parent_user_id, created_at FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var parent sql.NullString
		if err := rows.Scan(&user.ID, &user.Username, &parent, &user.CreatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			user.ParentUserID = &parent.String
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func parentExists(tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrInvalidParent
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var parent sql.NullString
	err := row.Scan(&user.ID, &user.Username, &parent, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if parent.Valid {
		user.ParentUserID = &parent.String
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
}

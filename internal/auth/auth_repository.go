package auth

import (
	"database/sql"
	"fmt"
)

type PostgresIdentityRepository struct {
	db *sql.DB
}

func NewPostgresIdentityRepository(db *sql.DB) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{db: db}
}

func (r *PostgresIdentityRepository) GetIdentity(provider, providerUID string) (*Identity, error) {
	query := `SELECT provider, provider_uid, secret_hash, user_id
			  FROM identities WHERE provider = $1 AND provider_uid = $2`

	i := &Identity{}
	var secretHash sql.NullString
	err := r.db.QueryRow(query, provider, providerUID).Scan(
		&i.Provider,
		&i.ProviderUID,
		&secretHash,
		&i.UserID,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("identity not found")
	}
	if err != nil {
		return nil, err
	}
	if secretHash.Valid {
		i.SecretHash = secretHash.String
	}
	return i, nil
}

func (r *PostgresIdentityRepository) GetUser(id string) (*User, error) {
	query := `SELECT id, display_name, email, role, created_at FROM users WHERE id = $1`

	u := &User{}
	var email sql.NullString
	err := r.db.QueryRow(query, id).Scan(&u.ID, &u.DisplayName, &email, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = email.String
	}
	return u, nil
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/dbx"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

const selectUser = `SELECT id, login, password, COALESCE(first_name, ''), COALESCE(last_name, ''),
		 is_superuser, continent, created_at, external_id, external_email
		 FROM users
		 `

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user into the partition selected by its continent. The
// login is claimed in user_login_claims by the same statement, so a login
// taken on any continent, including by a concurrent insert, yields
// common.ErrDuplicateLogin.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Continent == "" {
		user.Continent = models.DefaultContinent
	}

	query :=
		`WITH claim AS (
			INSERT INTO user_login_claims (login) VALUES ($1::varchar) RETURNING login
		 )
		 INSERT INTO users (login, password, first_name, last_name, is_superuser, continent, external_id, external_email)
		 SELECT claim.login, $2::varchar, $3::varchar, $4::varchar, $5::boolean, $6::varchar, $7::varchar, $8::varchar
		 FROM claim
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Login, user.PasswordHash, user.FirstName, user.LastName, user.IsSuperuser,
		string(user.Continent), user.ExternalID, user.ExternalEmail).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateLogin
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE login = $1
		 LIMIT 1`, login)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE id = $1
		 LIMIT 1`, id)
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`WHERE external_id = $1
		 LIMIT 1`, externalID)
}

// SetSuperuser sets the superuser flag of the user with the given login.
func (r *PostgresRepository) SetSuperuser(ctx context.Context, login string, isSuperuser bool) error {
	query :=
		`UPDATE users SET is_superuser = $2
		 WHERE login = $1
		 `

	res, err := r.db.ExecContext(ctx, query, login, isSuperuser)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var continent string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Login, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.IsSuperuser, &continent, &user.CreatedAt, &user.ExternalID, &user.ExternalEmail)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Continent = models.Continent(continent)

	roles, err := r.loadRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return user, nil
}

func (r *PostgresRepository) loadRoles(ctx context.Context, userID string) ([]models.Role, error) {
	query :=
		`SELECT r.id, r.name, COALESCE(r.description, '')
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

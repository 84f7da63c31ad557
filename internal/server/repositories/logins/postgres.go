package logins

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moviesauth/internal/dbx"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, signinData string) error {
	query :=
		`INSERT INTO users_logins (user_id, signin_data)
         VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, signinData); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LoginEvent, error) {
	query :=
		`SELECT id, user_id, COALESCE(signin_data, ''), login_at
		 FROM users_logins
		 WHERE user_id = $1
		 ORDER BY login_at DESC
		 LIMIT $2 OFFSET $3
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	events := make([]models.LoginEvent, 0, limit)
	for rows.Next() {
		var e models.LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.SigninData, &e.LoginAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return events, nil
}

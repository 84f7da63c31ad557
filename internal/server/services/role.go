package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RoleService manages roles and their assignment to users.
type RoleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewRoleService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *RoleService {
	return &RoleService{db: db, repomanager: m, logger: logger.With("module", "roles")}
}

func (s *RoleService) Create(ctx context.Context, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", common.ErrValidation)
	}
	role, err := s.repomanager.Roles(s.db).Create(ctx, &models.Role{Name: name, Description: description})
	if err != nil {
		return nil, s.mapErr(ctx, "create", err)
	}
	s.logger.Info(ctx, "role created", "name", role.Name)
	return role, nil
}

func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	role, err := s.repomanager.Roles(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(ctx, "get", err)
	}
	return role, nil
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	roles, err := s.repomanager.Roles(s.db).List(ctx)
	if err != nil {
		return nil, s.mapErr(ctx, "list", err)
	}
	return roles, nil
}

func (s *RoleService) Update(ctx context.Context, id, name, description string) (*models.Role, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", common.ErrValidation)
	}
	role := &models.Role{ID: id, Name: name, Description: description}
	if err := s.repomanager.Roles(s.db).Update(ctx, role); err != nil {
		return nil, s.mapErr(ctx, "update", err)
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Roles(s.db).Delete(ctx, id); err != nil {
		return s.mapErr(ctx, "delete", err)
	}
	s.logger.Info(ctx, "role deleted", "id", id)
	return nil
}

// AssignToUser grants the role to the user. Granting a role twice is not an
// error.
func (s *RoleService) AssignToUser(ctx context.Context, login, roleID string) error {
	user, err := s.resolve(ctx, login, roleID)
	if err != nil {
		return err
	}
	if err := s.repomanager.Roles(s.db).Assign(ctx, user.ID, roleID); err != nil {
		return s.mapErr(ctx, "assign", err)
	}
	s.logger.Info(ctx, "role assigned", "login", login, "role", roleID)
	return nil
}

// RevokeFromUser removes the grant; ErrorNotFound when the user does not
// hold the role.
func (s *RoleService) RevokeFromUser(ctx context.Context, login, roleID string) error {
	user, err := s.resolve(ctx, login, roleID)
	if err != nil {
		return err
	}
	if err := s.repomanager.Roles(s.db).Revoke(ctx, user.ID, roleID); err != nil {
		return s.mapErr(ctx, "revoke", err)
	}
	s.logger.Info(ctx, "role revoked", "login", login, "role", roleID)
	return nil
}

func (s *RoleService) resolve(ctx context.Context, login, roleID string) (*models.User, error) {
	if _, err := s.Get(ctx, roleID); err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, login)
	if err != nil {
		return nil, s.mapErr(ctx, "user lookup", err)
	}
	return user, nil
}

func (s *RoleService) mapErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		return common.ErrAlreadyExists
	default:
		s.logger.Error(ctx, "role "+op+" failed", "error", err)
		return common.ErrorInternal
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

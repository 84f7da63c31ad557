package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/cryptox"
	"github.com/dmitrijs2005/moviesauth/internal/dbx"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	loginsrepo "github.com/dmitrijs2005/moviesauth/internal/server/repositories/logins"
	refreshtokensrepo "github.com/dmitrijs2005/moviesauth/internal/server/repositories/refreshtokens"
	rolesrepo "github.com/dmitrijs2005/moviesauth/internal/server/repositories/roles"
	usersrepo "github.com/dmitrijs2005/moviesauth/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	cryptox.PasswordCost = bcrypt.MinCost
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger          { return n }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

// fakeUsersRepo mirrors the partitioned table: a login is unique per
// continent only, and a lookup by login returns the first matching row.
type fakeUsersRepo struct {
	mu   sync.Mutex
	rows []*models.User
	err  error
	// claimed holds logins taken by a concurrent insert that lookups do not
	// see yet; Create rejects them the way the login claim table does.
	claimed map[string]bool
	// roles is consulted on every lookup so role changes show up live.
	roles *fakeRolesRepo
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{}
}

func (f *fakeUsersRepo) withRoles(u *models.User) *models.User {
	c := *u
	c.Roles = nil
	if f.roles != nil {
		c.Roles = f.roles.rolesOf(u.ID)
	}
	return &c
}

func (f *fakeUsersRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeUsersRepo) countLogin(login string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.rows {
		if u.Login == login {
			n++
		}
	}
	return n
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.rows {
		if match(u) {
			return f.withRoles(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := *u
	if c.Continent == "" {
		c.Continent = models.DefaultContinent
	}
	if f.claimed[c.Login] {
		return nil, common.ErrDuplicateLogin
	}
	for _, row := range f.rows {
		if row.Login == c.Login && row.Continent == c.Continent {
			return nil, common.ErrDuplicateLogin
		}
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, &c)
	return f.withRoles(&c), nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Login == login })
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ExternalID != nil && *u.ExternalID == externalID })
}

func (f *fakeUsersRepo) SetSuperuser(_ context.Context, login string, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n := 0
	for _, u := range f.rows {
		if u.Login == login {
			u.IsSuperuser = v
			n++
		}
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// --- roles ---

type fakeRolesRepo struct {
	mu      sync.Mutex
	roles   map[string]*models.Role
	granted map[string]map[string]bool // userID -> roleID
	err     error
}

func newFakeRolesRepo() *fakeRolesRepo {
	return &fakeRolesRepo{roles: map[string]*models.Role{}, granted: map[string]map[string]bool{}}
}

func (f *fakeRolesRepo) rolesOf(userID string) []models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Role
	for id := range f.granted[userID] {
		if r, ok := f.roles[id]; ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *fakeRolesRepo) Create(_ context.Context, r *models.Role) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, x := range f.roles {
		if x.Name == r.Name {
			return nil, common.ErrAlreadyExists
		}
	}
	c := *r
	c.ID = uuid.NewString()
	f.roles[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeRolesRepo) GetByID(_ context.Context, id string) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.roles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeRolesRepo) List(context.Context) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRolesRepo) Update(_ context.Context, r *models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.roles[r.ID]; !ok {
		return common.ErrorNotFound
	}
	for id, x := range f.roles {
		if id != r.ID && x.Name == r.Name {
			return common.ErrAlreadyExists
		}
	}
	c := *r
	f.roles[r.ID] = &c
	return nil
}

func (f *fakeRolesRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.roles[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.roles, id)
	for _, g := range f.granted {
		delete(g, id)
	}
	return nil
}

func (f *fakeRolesRepo) Assign(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.granted[userID] == nil {
		f.granted[userID] = map[string]bool{}
	}
	f.granted[userID][roleID] = true
	return nil
}

func (f *fakeRolesRepo) Revoke(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if !f.granted[userID][roleID] {
		return common.ErrorNotFound
	}
	delete(f.granted[userID], roleID)
	return nil
}

// --- logins ---

type fakeLoginsRepo struct {
	mu        sync.Mutex
	events    []models.LoginEvent
	createErr error
	listErr   error
	lastLimit int
	lastOff   int
}

func (f *fakeLoginsRepo) Create(_ context.Context, userID, signinData string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, models.LoginEvent{
		ID: uuid.NewString(), UserID: userID, SigninData: signinData, LoginAt: time.Now().UTC(),
	})
	return nil
}

func (f *fakeLoginsRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.LoginEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastOff = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	var mine []models.LoginEvent
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].UserID == userID {
			mine = append(mine, f.events[i])
		}
	}
	out := []models.LoginEvent{}
	for i := offset; i < len(mine) && i < offset+limit; i++ {
		out = append(out, mine[i])
	}
	return out, nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu        sync.Mutex
	byToken   map[string]models.RefreshToken
	createErr error
	findErr   error
	delErr    error
	delJTIErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byToken: map[string]models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token, jti string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now().UTC()
	f.byToken[token] = models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: token, JTI: jti, CreatedAt: now, Expires: now.Add(validity),
	}
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	rt, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rt, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.byToken, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteByJTI(_ context.Context, jti string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delJTIErr != nil {
		return f.delJTIErr
	}
	for k, v := range f.byToken {
		if v.JTI == jti {
			delete(f.byToken, k)
		}
	}
	return nil
}

func (f *fakeRefreshRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byToken)
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRolesRepo
	l *fakeLoginsRepo
	t *fakeRefreshRepo
}

func newFakeRepoManager() *fakeRepoManager {
	roles := newFakeRolesRepo()
	users := newFakeUsersRepo()
	users.roles = roles
	return &fakeRepoManager{u: users, r: roles, l: &fakeLoginsRepo{}, t: newFakeRefreshRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) Roles(dbx.DBTX) rolesrepo.Repository                 { return m.r }
func (m *fakeRepoManager) Logins(dbx.DBTX) loginsrepo.Repository               { return m.l }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.t }

// --- revocations ---

type fakeRevoker struct {
	mu        sync.Mutex
	revoked   map[string]time.Duration
	revokeErr error
	lookupErr error
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: map[string]time.Duration{}}
}

func (f *fakeRevoker) Revoke(_ context.Context, jti, _ string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	_, ok := f.revoked[jti]
	return ok, nil
}

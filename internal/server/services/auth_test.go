package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"videohub/internal/common"
	"videohub/internal/dbx"
	"videohub/internal/logging"
	"videohub/internal/server/auth"
	"videohub/internal/server/models"
	accountsrepo "videohub/internal/server/repositories/accounts"
	"videohub/internal/server/repositories/repomanager"
	subscriptionsrepo "videohub/internal/server/repositories/subscriptions"
	videosrepo "videohub/internal/server/repositories/videos"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newAuthService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *AuthService {
	t.Helper()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("access-secret"), []byte("refresh-secret"), time.Hour, 2*time.Hour)
	return NewAuthService(db, rm, hasher, tokens, logging.NewJSON("error"))
}

func mustHash(t *testing.T, plaintext string) string {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(digest)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeAccountsRepo is an in-memory, single-account store. It keeps the
// refresh-token slot stateful so rotation and replay can be asserted.
type fakeAccountsRepo struct {
	account *models.Account

	createErr error
	getErr    error
	setErr    error
	clearErr  error
	updateErr error

	appended []string
}

func (f *fakeAccountsRepo) found(a *models.Account) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if a == nil {
		return nil, common.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := *a
	c.ID = "acc-1"
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.account = &c
	return f.found(f.account)
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if f.account != nil && f.account.ID != id {
		return nil, common.ErrNotFound
	}
	return f.found(f.account)
}

func (f *fakeAccountsRepo) GetByLogin(ctx context.Context, username, email string) (*models.Account, error) {
	if f.account != nil && f.account.Username != username && f.account.Email != email {
		return nil, common.ErrNotFound
	}
	return f.found(f.account)
}

func (f *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if f.account != nil && f.account.Username != username {
		return nil, common.ErrNotFound
	}
	return f.found(f.account)
}

func (f *fakeAccountsRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.account == nil || f.account.ID != id {
		return common.ErrNotFound
	}
	f.account.RefreshToken = token
	return nil
}

func (f *fakeAccountsRepo) ClearRefreshToken(ctx context.Context, id string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	if f.account == nil || f.account.ID != id {
		return common.ErrNotFound
	}
	f.account.RefreshToken = ""
	return nil
}

func (f *fakeAccountsRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.account == nil || f.account.ID != id {
		return common.ErrNotFound
	}
	f.account.PasswordHash = hash
	return nil
}

func (f *fakeAccountsRepo) UpdateDetails(ctx context.Context, id, fullname, email string) (*models.Account, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.account == nil || f.account.ID != id {
		return nil, common.ErrNotFound
	}
	f.account.Fullname = fullname
	f.account.Email = email
	return f.found(f.account)
}

func (f *fakeAccountsRepo) UpdateAvatar(ctx context.Context, id, url string) (*models.Account, error) {
	if f.account == nil || f.account.ID != id {
		return nil, common.ErrNotFound
	}
	f.account.AvatarURL = url
	return f.found(f.account)
}

func (f *fakeAccountsRepo) UpdateCover(ctx context.Context, id, url string) (*models.Account, error) {
	if f.account == nil || f.account.ID != id {
		return nil, common.ErrNotFound
	}
	f.account.CoverURL = &url
	return f.found(f.account)
}

func (f *fakeAccountsRepo) AppendWatch(ctx context.Context, accountID, videoID string) error {
	f.appended = append(f.appended, videoID)
	return nil
}

type fakeVideosRepo struct {
	history []models.WatchEntry
	histErr error

	video  *models.Video
	getErr error
}

func (f *fakeVideosRepo) WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.history, nil
}

func (f *fakeVideosRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.video == nil || f.video.ID != id {
		return nil, common.ErrNotFound
	}
	return f.video, nil
}

type fakeSubscriptionsRepo struct {
	stats *subscriptionsrepo.ChannelStats
	err   error
}

func (f *fakeSubscriptionsRepo) Stats(ctx context.Context, channelID string, viewerID *string) (*subscriptionsrepo.ChannelStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	v *fakeVideosRepo
	s *fakeSubscriptionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.a }
func (m *fakeRepoManager) Videos(db dbx.DBTX) videosrepo.Repository     { return m.v }
func (m *fakeRepoManager) Subscriptions(db dbx.DBTX) subscriptionsrepo.Repository {
	return m.s
}

func seededAccount(t *testing.T, password string) *models.Account {
	t.Helper()
	return &models.Account{
		ID:           "acc-1",
		Username:     "alice",
		Email:        "alice@example.com",
		Fullname:     "Alice A",
		AvatarURL:    "https://cdn.example.com/a.png",
		PasswordHash: mustHash(t, password),
	}
}

// --- register ---

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{a: &fakeAccountsRepo{}}
	s := newAuthService(t, db, rm)

	created, err := s.Register(context.Background(), RegisterParams{
		Fullname:  "  Alice A ",
		Email:     "Alice@Example.COM",
		Username:  "ALICE",
		Password:  "s3cret",
		AvatarURL: "https://cdn.example.com/a.png",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if created.Username != "alice" || created.Email != "alice@example.com" || created.Fullname != "Alice A" {
		t.Fatalf("normalization not applied: %+v", created)
	}
	if created.PasswordHash != "" || created.RefreshToken != "" {
		t.Fatalf("credentials leaked: %+v", created)
	}
	stored := rm.a.account
	if stored.PasswordHash == "s3cret" || stored.PasswordHash == "" {
		t.Fatalf("password not hashed: %q", stored.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	cases := []RegisterParams{
		{Email: "a@b.c", Username: "a", Password: "p", AvatarURL: "u"},
		{Fullname: "A", Username: "a", Password: "p", AvatarURL: "u"},
		{Fullname: "A", Email: "a@b.c", Password: "p", AvatarURL: "u"},
		{Fullname: "A", Email: "a@b.c", Username: "a", AvatarURL: "u"},
		{Fullname: "A", Email: "a@b.c", Username: "a", Password: "   ", AvatarURL: "u"},
		{Fullname: "A", Email: "a@b.c", Username: "a", Password: "p"},
	}
	for _, p := range cases {
		if _, err := s.Register(context.Background(), p); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("want ErrValidation for %+v, got %v", p, err)
		}
	}
}

func TestRegister_DuplicateConflict(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := &fakeRepoManager{a: &fakeAccountsRepo{createErr: common.ErrConflict}}
	s := newAuthService(t, db, rm)

	_, err := s.Register(context.Background(), RegisterParams{
		Fullname: "A", Email: "a@b.c", Username: "a", Password: "p", AvatarURL: "u",
	})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestRegister_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := &fakeRepoManager{a: &fakeAccountsRepo{createErr: errBoom{}}}
	s := newAuthService(t, db, rm)

	_, err := s.Register(context.Background(), RegisterParams{
		Fullname: "A", Email: "a@b.c", Username: "a", Password: "p", AvatarURL: "u",
	})
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("want ErrInternal, got %v", err)
	}
}

// --- login ---

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	pair, account, err := s.Login(context.Background(), "ALICE ", "", "s3cret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if repo.account.RefreshToken != pair.RefreshToken {
		t.Fatalf("issued refresh token not persisted")
	}
	if account.PasswordHash != "" || account.RefreshToken != "" {
		t.Fatalf("credentials leaked: %+v", account)
	}
}

func TestLogin_ByEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	if _, _, err := s.Login(context.Background(), "", "Alice@Example.com", "s3cret"); err != nil {
		t.Fatalf("Login by email error: %v", err)
	}
}

func TestLogin_NoIdentifier(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	_, _, err := s.Login(context.Background(), "  ", "", "p")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	_, _, err := s.Login(context.Background(), "ghost", "", "p")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	_, _, err := s.Login(context.Background(), "alice", "", "wrong")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if repo.account.RefreshToken != "" {
		t.Fatalf("refresh token set on failed login")
	}
}

func TestLogin_SecondLoginOverwritesSession(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	first, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if repo.account.RefreshToken != second.RefreshToken {
		t.Fatalf("second login did not overwrite stored token")
	}
	if repo.account.RefreshToken == first.RefreshToken {
		t.Fatalf("stored token still belongs to the first session")
	}
}

func TestLogin_PersistFailureIsInternal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret"), setErr: errBoom{}}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	_, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if !errors.Is(err, common.ErrInternal) {
		t.Fatalf("want ErrInternal, got %v", err)
	}
}

// --- refresh ---

func TestRefresh_RotatesTokens(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	pair, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := s.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	if repo.account.RefreshToken != rotated.RefreshToken {
		t.Fatalf("rotated token not persisted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefresh_ReusedTokenRejected(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	pair, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := s.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// the original token was rotated away and must now be refused
	_, err = s.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on replay, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefresh_EmptyToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	_, err := s.Refresh(context.Background(), "  ")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	_, err := s.Refresh(context.Background(), "not-a-jwt")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestRefresh_AfterLogoutRejected(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	pair, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Logout(context.Background(), "acc-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = s.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized after logout, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

// --- logout ---

func TestLogout_Idempotent(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	repo.account.RefreshToken = "live-token"
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	if err := s.Logout(context.Background(), "acc-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if repo.account.RefreshToken != "" {
		t.Fatalf("refresh token not cleared")
	}
	// a second logout with nothing stored still succeeds
	if err := s.Logout(context.Background(), "acc-1"); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
}

func TestLogout_UnknownAccount(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	if err := s.Logout(context.Background(), "ghost"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// --- change password ---

func TestChangePassword_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "old-pass")}
	repo.account.RefreshToken = "live-token"
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	if err := s.ChangePassword(context.Background(), "acc-1", "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.account.PasswordHash), []byte("new-pass")); err != nil {
		t.Fatalf("new password not stored: %v", err)
	}
	// the active session survives a password change
	if repo.account.RefreshToken != "live-token" {
		t.Fatalf("refresh token unexpectedly touched")
	}
}

func TestChangePassword_WrongOld(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "old-pass")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	err := s.ChangePassword(context.Background(), "acc-1", "nope", "new-pass")
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.account.PasswordHash), []byte("old-pass")); err != nil {
		t.Fatalf("stored hash changed on failed attempt: %v", err)
	}
}

func TestChangePassword_EmptyNew(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	err := s.ChangePassword(context.Background(), "acc-1", "old", "   ")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestChangePassword_UnknownAccount(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	err := s.ChangePassword(context.Background(), "ghost", "old", "new")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// --- profile mutations ---

func TestGetCurrentUser_Sanitized(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	repo.account.RefreshToken = "live-token"
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	account, err := s.GetCurrentUser(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("GetCurrentUser error: %v", err)
	}
	if account.PasswordHash != "" || account.RefreshToken != "" {
		t.Fatalf("credentials leaked: %+v", account)
	}
}

func TestUpdateDetails_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	if _, err := s.UpdateDetails(context.Background(), "acc-1", " ", "a@b.c"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestUpdateDetails_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	account, err := s.UpdateDetails(context.Background(), "acc-1", "Alice B", "NEW@Example.com")
	if err != nil {
		t.Fatalf("UpdateDetails error: %v", err)
	}
	if account.Fullname != "Alice B" || account.Email != "new@example.com" {
		t.Fatalf("details not applied: %+v", account)
	}
}

func TestUpdateAvatar_Empty(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newAuthService(t, db, &fakeRepoManager{a: &fakeAccountsRepo{}})

	if _, err := s.UpdateAvatar(context.Background(), "acc-1", " "); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestUpdateCover_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeAccountsRepo{account: seededAccount(t, "s3cret")}
	s := newAuthService(t, db, &fakeRepoManager{a: repo})

	account, err := s.UpdateCover(context.Background(), "acc-1", "https://cdn.example.com/c.png")
	if err != nil {
		t.Fatalf("UpdateCover error: %v", err)
	}
	if account.CoverURL == nil || *account.CoverURL != "https://cdn.example.com/c.png" {
		t.Fatalf("cover not applied: %+v", account)
	}
}

// --- full session lifecycle ---

func TestSessionLifecycle(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{a: &fakeAccountsRepo{}}
	s := newAuthService(t, db, rm)

	if _, err := s.Register(context.Background(), RegisterParams{
		Fullname: "Alice A", Email: "alice@example.com", Username: "alice",
		Password: "s3cret", AvatarURL: "https://cdn.example.com/a.png",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, _, err := s.Login(context.Background(), "alice", "", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := s.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := s.Logout(context.Background(), "acc-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := s.Refresh(context.Background(), rotated.RefreshToken); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized after logout, got %v", err)
	}

	if _, _, err := s.Login(context.Background(), "alice", "", "s3cret"); err != nil {
		t.Fatalf("login after logout: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

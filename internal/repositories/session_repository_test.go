package repositories

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"spendwise/internal/database"
	"spendwise/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestSessionRepositories(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}

// SessionRepositorySuite covers refresh tokens, the access token blacklist and the audit log.
type SessionRepositorySuite struct {
	suite.Suite
	db          *database.DB
	refresh     RefreshTokenRepositoryInterface
	blacklisted BlacklistedTokenRepositoryInterface
	audit       AuditLogRepositoryInterface
	user        *models.User
}

func (s *SessionRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.refresh = NewRefreshTokenRepository(s.db.DB)
	s.blacklisted = NewBlacklistedTokenRepository(s.db.DB)
	s.audit = NewAuditLogRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "session")
}

func (s *SessionRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func hashOf(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *SessionRepositorySuite) TestRefreshToken_Lifecycle() {
	token := &models.RefreshToken{
		UserID:    s.user.ID,
		TokenHash: hashOf("refresh-1"),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	s.Require().NoError(s.refresh.Create(token))

	found, err := s.refresh.GetByTokenHash(hashOf("refresh-1"))
	s.Require().NoError(err)
	s.Equal(token.ID, found.ID)

	s.Require().NoError(s.refresh.Revoke(token.ID))
	s.ErrorIs(s.refresh.Revoke(token.ID), ErrRefreshTokenNotFound)

	revoked, err := s.refresh.GetByTokenHash(hashOf("refresh-1"))
	s.Require().NoError(err)
	s.False(revoked.IsValid(time.Now()))

	_, err = s.refresh.GetByTokenHash(hashOf("missing"))
	s.ErrorIs(err, ErrRefreshTokenNotFound)
}

func (s *SessionRepositorySuite) TestRefreshToken_RevokeAllAndDeleteExpired() {
	for i, expiry := range []time.Duration{time.Hour, -time.Hour} {
		s.Require().NoError(s.refresh.Create(&models.RefreshToken{
			UserID:    s.user.ID,
			TokenHash: hashOf(uuid.NewString()),
			ExpiresAt: time.Now().Add(expiry),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	s.Require().NoError(s.refresh.RevokeAllForUser(s.user.ID))

	deleted, err := s.refresh.DeleteExpired()
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
}

func (s *SessionRepositorySuite) TestBlacklist() {
	blacklisted, err := s.blacklisted.IsBlacklisted("jti-1")
	s.Require().NoError(err)
	s.False(blacklisted)

	s.Require().NoError(s.blacklisted.Create(&models.BlacklistedToken{
		JTI:       "jti-1",
		UserID:    s.user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	blacklisted, err = s.blacklisted.IsBlacklisted("jti-1")
	s.Require().NoError(err)
	s.True(blacklisted)

	deleted, err := s.blacklisted.DeleteExpired()
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
}

func (s *SessionRepositorySuite) TestAuditLog() {
	userID := s.user.ID
	for _, action := range []string{models.AuditActionRegister, models.AuditActionLogin, models.AuditActionBankLinked} {
		s.Require().NoError(s.audit.Create(&models.AuditLog{
			UserID:   &userID,
			Action:   action,
			Resource: "user",
		}))
	}
	s.Require().NoError(s.audit.Create(&models.AuditLog{
		Action:    models.AuditActionFailedLogin,
		Resource:  "auth",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}))

	logs, total, err := s.audit.GetByUserID(userID, 0, 2)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(logs, 2)

	pruned, err := s.audit.DeleteOlderThan(24 * time.Hour)
	s.Require().NoError(err)
	s.Equal(int64(1), pruned)

	s.Error(s.audit.Create(nil))
}

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/eduassist/internal/auth"
	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/cryptox"
	"github.com/dmitrijs2005/eduassist/internal/dbx"
	"github.com/dmitrijs2005/eduassist/internal/logging"
	"github.com/dmitrijs2005/eduassist/internal/models"
	"github.com/dmitrijs2005/eduassist/internal/repositories/repomanager"
	"github.com/dmitrijs2005/eduassist/internal/repositories/sessions"
	"github.com/dmitrijs2005/eduassist/internal/repositories/users"
	"github.com/dmitrijs2005/eduassist/internal/repositories/verifications"
)

// ErrInvalidVerificationToken is returned by ConfirmEmail for unknown or
// expired verification tokens.
var ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

type ProviderConfig struct {
	SecretKey            string
	SessionValidity      time.Duration
	VerificationValidity time.Duration
	// VerificationURL is the base of the link mailed to users; the token is
	// appended as the "token" query parameter.
	VerificationURL string
}

// Provider is the Postgres-backed identity backend.
type Provider struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cfg         ProviderConfig
	mailer      Mailer
	log         logging.Logger
	now         func() time.Time
}

func NewProvider(db *sql.DB, m repomanager.RepositoryManager, cfg ProviderConfig, mailer Mailer, log logging.Logger) *Provider {
	return &Provider{
		db:          db,
		repomanager: m,
		cfg:         cfg,
		mailer:      mailer,
		log:         log,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func networkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrNetwork, op, err)
}

func (p *Provider) Create(ctx context.Context, email, password string) (*models.Identity, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	salt, verifier := cryptox.NewVerifier([]byte(password))
	user := &users.User{
		ID:       uuid.NewString(),
		Email:    normalizeEmail(email),
		Salt:     salt,
		Verifier: verifier,
	}

	u, err := p.repomanager.Users(p.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrEmailInUse
		}
		return nil, networkError("create user", err)
	}

	p.log.Info(ctx, "identity created", "identity_id", u.ID)
	return &models.Identity{ID: u.ID, Email: u.Email, Verified: u.Verified}, nil
}

func (p *Provider) Verify(ctx context.Context, email, password string) (*models.Identity, error) {
	user, err := p.repomanager.Users(p.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, networkError("lookup user", err)
	}
	if !cryptox.CheckPassword([]byte(password), user.Salt, user.Verifier) {
		return nil, ErrInvalidCredential
	}

	sess := &sessions.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: p.now().Add(p.cfg.SessionValidity),
	}
	if err := p.repomanager.Sessions(p.db).Create(ctx, sess); err != nil {
		return nil, networkError("create session", err)
	}

	token, err := auth.GenerateToken(user.ID, sess.ID, []byte(p.cfg.SecretKey), p.cfg.SessionValidity)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &models.Identity{ID: user.ID, Email: user.Email, Verified: user.Verified, Token: token}, nil
}

// Invalidate treats a missing or unparsable token as an already ended session.
func (p *Provider) Invalidate(ctx context.Context, identity *models.Identity) error {
	if identity == nil || identity.Token == "" {
		return nil
	}
	sid, err := auth.SessionIDFromToken(identity.Token, []byte(p.cfg.SecretKey))
	if err != nil {
		p.log.Debug(ctx, "invalidate: token not recognised", "identity_id", identity.ID)
		return nil
	}
	if err := p.repomanager.Sessions(p.db).Delete(ctx, sid); err != nil {
		return networkError("delete session", err)
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, identity *models.Identity) error {
	err := p.repomanager.Users(p.db).Delete(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNotFound
		}
		return networkError("delete user", err)
	}
	p.log.Info(ctx, "identity deleted", "identity_id", identity.ID)
	return nil
}

func (p *Provider) ResendVerification(ctx context.Context, identity *models.Identity) error {
	claims, err := auth.ParseToken(identity.Token, []byte(p.cfg.SecretKey))
	if err != nil || claims.UserID != identity.ID {
		return ErrInvalidCredential
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return p.repomanager.Verifications(tx).Replace(ctx, &verifications.Verification{
			Token:     token,
			UserID:    identity.ID,
			ExpiresAt: p.now().Add(p.cfg.VerificationValidity),
		})
	})
	if err != nil {
		return networkError("store verification", err)
	}

	if err := p.mailer.SendVerification(ctx, identity.Email, p.verificationLink(token)); err != nil {
		return networkError("send verification", err)
	}
	return nil
}

func (p *Provider) verificationLink(token string) string {
	u, err := url.Parse(p.cfg.VerificationURL)
	if err != nil || p.cfg.VerificationURL == "" {
		return token
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmEmail consumes a mailed verification token and marks its owner's
// email as verified.
func (p *Provider) ConfirmEmail(ctx context.Context, token string) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userID, err := p.repomanager.Verifications(tx).Consume(ctx, token, p.now())
		if err != nil {
			return err
		}
		return p.repomanager.Users(tx).MarkVerified(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidVerificationToken
		}
		return networkError("confirm email", err)
	}
	return nil
}

// PurgeExpiredSessions removes provider sessions past their expiry.
func (p *Provider) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := p.repomanager.Sessions(p.db).DeleteExpired(ctx, p.now())
	if err != nil {
		return 0, networkError("purge sessions", err)
	}
	return n, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/util/metrics"
	"github.com/yamdb/api-yamdb/util/random"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/locale"
	"github.com/yamdb/api-yamdb/web/mail"
	"github.com/yamdb/api-yamdb/web/validator"
	"gorm.io/gorm"
)

const ConfirmationCodeLength = 16

// AuthService implements signup by e-mailed confirmation code and the
// exchange of that code for a bearer token.
type AuthService struct {
	db     *gorm.DB
	codes  ConfirmationStore
	mailer mail.Mailer
	tokens TokenIssuer
	// codeTTL is only quoted in the confirmation mail.
	codeTTL time.Duration

	deliveries sync.WaitGroup
}

func NewAuthService(db *gorm.DB, codes ConfirmationStore, mailer mail.Mailer, tokens TokenIssuer, codeTTL time.Duration) *AuthService {
	return &AuthService{db: db, codes: codes, mailer: mailer, tokens: tokens, codeTTL: codeTTL}
}

type SignupResult struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup registers the (username, email) pair, or reuses it when it is
// already registered exactly, and mails a fresh confirmation code that
// replaces any earlier one. lang selects the mail language. The username
// is taken as given; surrounding blanks make it invalid.
func (s *AuthService) Signup(ctx context.Context, username, email, lang string) (SignupResult, error) {
	email = strings.TrimSpace(email)

	verr := &entity.ValidationError{}
	if msg := validator.CheckLength(username, validator.MaxUsernameLength); msg != "" {
		verr.Add("username", msg)
	}
	if err := validator.ValidateEmail(email); err != nil {
		verr.Add("email", err.Error())
	}
	if _, bad := verr.Fields["username"]; !bad {
		if err := validator.ValidateUsername(username); err != nil {
			return SignupResult{}, err
		}
	}
	if err := verr.Err(); err != nil {
		return SignupResult{}, err
	}

	user, err := s.getOrCreate(ctx, username, email)
	if err != nil {
		return SignupResult{}, err
	}

	code := random.Seq(ConfirmationCodeLength)
	if err := s.codes.Put(ctx, user.Username, code); err != nil {
		return SignupResult{}, fmt.Errorf("store confirmation code: %w", err)
	}
	metrics.Signups.Inc()
	s.sendCode(ctx, user, code, lang)

	return SignupResult{Username: user.Username, Email: user.Email}, nil
}

// sendCode delivers the code in the background. Failures are logged and
// counted but never reach the caller.
func (s *AuthService) sendCode(ctx context.Context, user *model.User, code, lang string) {
	subject := locale.I18n(lang, "confirmationSubject")
	body := locale.I18n(lang, "confirmationBody",
		"Username=="+user.Username,
		"Code=="+code,
		"TTL=="+s.codeTTL.String(),
	)
	to := user.Email
	ctx = context.WithoutCancel(ctx)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		if err := s.mailer.Deliver(ctx, subject, body, to); err != nil {
			metrics.MailDeliveries.WithLabelValues("failed").Inc()
			logger.Warningf("confirmation mail to %s failed: %v", to, err)
			return
		}
		metrics.MailDeliveries.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until every queued confirmation mail has been handed to the
// mailer.
func (s *AuthService) Wait() {
	s.deliveries.Wait()
}

func (s *AuthService) getOrCreate(ctx context.Context, username, email string) (*model.User, error) {
	db := s.db.WithContext(ctx)
	user, err := matchIdentity(db, username, email)
	if !errors.Is(err, entity.ErrNotFound) {
		return user, err
	}

	user = &model.User{Username: username, Email: email, Role: model.RoleUser}
	err = db.Create(user).Error
	if database.IsDuplicate(err) {
		// A concurrent signup won the insert; converge on its row.
		user, err = matchIdentity(db, username, email)
		if errors.Is(err, entity.ErrNotFound) {
			return nil, entity.ErrIdentityConflict
		}
		return user, err
	}
	if err != nil {
		return nil, err
	}
	logger.Infof("user %s signed up", username)
	return user, nil
}

// matchIdentity returns the user owning exactly this pair. It fails with
// ErrNotFound when neither value is taken and with ErrIdentityConflict
// when either belongs to a different account.
func matchIdentity(db *gorm.DB, username, email string) (*model.User, error) {
	var users []model.User
	if err := db.Where("username = ? OR email = ?", username, email).Limit(2).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, entity.ErrNotFound
	}
	for i := range users {
		if users[i].Username == username && users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, entity.ErrIdentityConflict
}

// Token exchanges a confirmation code for a bearer token. The stored code
// is consumed by the attempt whether or not it matches.
func (s *AuthService) Token(ctx context.Context, username, code string) (string, error) {
	verr := &entity.ValidationError{}
	if username == "" {
		verr.Add("username", "this field is required")
	}
	if strings.TrimSpace(code) == "" {
		verr.Add("confirmation_code", "this field is required")
	}
	if err := verr.Err(); err != nil {
		return "", err
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if database.IsNotFound(err) {
		return "", fmt.Errorf("user %q: %w", username, entity.ErrNotFound)
	}
	if err != nil {
		return "", err
	}

	ok, err := s.codes.Consume(ctx, user.Username, code)
	if err != nil {
		return "", fmt.Errorf("consume confirmation code: %w", err)
	}
	if !ok {
		metrics.TokenExchanges.WithLabelValues("rejected").Inc()
		return "", entity.ErrInvalidConfirmationCode
	}

	token, err := s.tokens.Issue(&user)
	if err != nil {
		return "", err
	}
	metrics.TokenExchanges.WithLabelValues("issued").Inc()
	return token, nil
}

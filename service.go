package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/finbase/go-accounts/storage"
)

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// AuthResult bundles the issued token with the account it was issued for.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfilePictureUpload is an optional picture attached to sign-up.
type ProfilePictureUpload struct {
	Filename string
	Data     []byte
}

// SignUpInput carries the sign-up fields. Validation happens in the service,
// not the transport, so every caller gets the same rules.
type SignUpInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Password       string
	ProfilePicture *ProfilePictureUpload
	// UseHashid derives the account id deterministically from the email
	// instead of generating a random uuid.
	UseHashid bool
}

// SignInInput carries the sign-in credentials.
type SignInInput struct {
	Email    string
	Password string
}

// AccountService orchestrates sign-up and sign-in over the user store, the
// credential hasher, and the token service. It keeps no mutable state of its
// own; concurrent requests only share the immutable signing key and the
// database behind the repositories.
type AccountService struct {
	repo     RepositoryManager
	tokens   TokenService
	pictures storage.BlobStore
	logger   Logger
}

// NewAccountService returns a service wired with a TokenService built from
// the given config.
func NewAccountService(repo RepositoryManager, opts Config) *AccountService {
	tokens := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &AccountService{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *AccountService) WithLogger(logger Logger) *AccountService {
	s.logger = logger
	return s
}

// WithBlobStore configures where profile pictures are stored. Without one,
// sign-up still works and pictures are skipped.
func (s *AccountService) WithBlobStore(store storage.BlobStore) *AccountService {
	s.pictures = store
	return s
}

// WithTokenService overrides the token service built from config.
func (s *AccountService) WithTokenService(tokens TokenService) *AccountService {
	s.tokens = tokens
	return s
}

// TokenService returns the TokenService instance used by this service
func (s *AccountService) TokenService() TokenService {
	return s.tokens
}

// SignUp registers a new account. The account id is assigned before the
// token is issued so the token subject always matches the persisted id; the
// insert runs last, inside a transaction, with the unique email index as the
// final arbiter against concurrent duplicates.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, WrapValidationErrors(err)
	}

	if _, err := s.repo.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing account")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	pictureURL, err := s.storeProfilePicture(ctx, input.ProfilePicture)
	if err != nil {
		return nil, err
	}

	user := &User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
		PasswordHash:   hash,
		ProfilePicture: pictureURL,
	}

	user.ID = uuid.New()
	if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	token, err := s.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		s.logger.Error("SignUp token generation failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue token")
	}
	user.WithLatestToken(token)

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := s.repo.Users().RegisterTx(ctx, tx, user)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			// Lost the race against a concurrent sign-up for the same email.
			return nil, ErrEmailAlreadyRegistered
		}
		s.logger.Error("SignUp persistence failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	return &AuthResult{Token: token, User: user}, nil
}

// SignIn verifies the credentials and issues a fresh token, overwriting the
// user's latest token. Unknown email and wrong password produce the same
// generic error.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, WrapValidationErrors(err)
	}

	user, err := s.repo.Users().GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(input.Password, user.PasswordHash); err != nil {
		if err2 := s.repo.Users().TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	token, err := s.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		s.logger.Error("SignIn token generation failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue token")
	}

	if err := s.repo.Users().StoreLatestToken(ctx, user, token); err != nil {
		s.logger.Error("SignIn failed to store latest token", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist issued token")
	}

	// Counter reset is best effort; the sign-in already succeeded.
	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login", "error", err)
	}

	return &AuthResult{Token: token, User: user}, nil
}

// VerifyToken validates a bearer token and returns its claims.
func (s *AccountService) VerifyToken(token string) (AuthClaims, error) {
	return s.tokens.Validate(token)
}

// UserFromToken validates a bearer token and loads the account it belongs to.
func (s *AccountService) UserFromToken(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	return s.UserFromClaims(ctx, claims)
}

// UserFromClaims loads the account behind already verified claims.
func (s *AccountService) UserFromClaims(ctx context.Context, claims AuthClaims) (*User, error) {
	if claims == nil {
		return nil, ErrIdentityNotFound
	}

	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user from token")
	}

	return user, nil
}

func (s *AccountService) storeProfilePicture(ctx context.Context, picture *ProfilePictureUpload) (string, error) {
	if picture == nil || len(picture.Data) == 0 {
		return "", nil
	}

	if s.pictures == nil {
		s.logger.Info("profile picture ignored, no blob store configured")
		return "", nil
	}

	url, err := s.pictures.Store(ctx, picture.Filename, picture.Data)
	if err != nil {
		s.logger.Error("profile picture store failed", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to store profile picture")
	}

	return url, nil
}

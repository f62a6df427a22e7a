package auth

import (
	"context"
	"errors"
	"strings"

	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/pkg/constants"
	"nftmarket-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountFinder abstracts account lookup by email+password (GORM in production, fakes in tests).
type AccountFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Account, error)
}

// GormAccountFinder implements AccountFinder using GORM and bcrypt.
type GormAccountFinder struct{ DB *gorm.DB }

func (g *GormAccountFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.Account, error) {
	return LoginAccount(g.DB.WithContext(ctx), LoginInput{Email: email, Password: password})
}

// LoginAccount finds the account by email and verifies the password.
func LoginAccount(db *gorm.DB, input LoginInput) (*domain.Account, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var a domain.Account
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &a, nil
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	Address  string `json:"address"`
	Role     string `json:"-"`
}

type Service struct {
	DB *gorm.DB
	// Operator is the address that registers with the operator role (the market administrator).
	Operator string
}

// Register creates an account bound to one address. Role defaults to trader.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	if !validation.IsValidAddress(in.Address) || validation.IsZeroAddress(in.Address) {
		return nil, ErrInvalidAddress
	}
	role := in.Role
	if role == "" {
		role = constants.Trader
		if s.Operator != "" && domain.NormalizeAddress(in.Address) == domain.NormalizeAddress(s.Operator) {
			role = constants.Operator
		}
	}
	if !constants.IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Address:      domain.NormalizeAddress(in.Address),
		Email:        email,
		Fullname:     strings.TrimSpace(in.Fullname),
		PasswordHash: string(hash),
		Role:         role,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Account{}).
			Where("email = ? OR address = ?", account.Email, account.Address).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAccountExists
		}
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	UserID   string `json:"user_id"`
	Address  string `json:"address"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// VerifyUser validates the raw session user and returns the /me shape.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	if str("user_id") == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		UserID:   str("user_id"),
		Address:  str("address"),
		Fullname: str("fullname"),
		Email:    str("email"),
		Role:     str("role"),
	}, nil
}

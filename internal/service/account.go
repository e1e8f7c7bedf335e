package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/config"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "satchmo-store"

type AccountService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*model.Contact, error)
	Login(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to its contact.
	Authenticate(ctx context.Context, token string) (*model.Contact, error)
	Get(ctx context.Context, contactID uint) (*model.Contact, error)
	AddAddress(ctx context.Context, contactID uint, req dto.AddressBookRequest) (*model.AddressBook, error)
	Addresses(ctx context.Context, contactID uint) ([]model.AddressBook, error)
	Orders(ctx context.Context, contactID uint) ([]*model.Order, error)
}

type accountClaims struct {
	Role model.ContactRole `json:"role"`
	jwt.RegisteredClaims
}

type accountServiceImpl struct {
	contacts repository.ContactRepository
	orders   repository.OrderRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAccountService(contacts repository.ContactRepository, orders repository.OrderRepository, authCfg config.Auth) AccountService {
	return &accountServiceImpl{
		contacts: contacts,
		orders:   orders,
		secret:   []byte(authCfg.Secret),
		ttl:      authCfg.TokenTTL,
		now:      time.Now,
	}
}

func (s *accountServiceImpl) Register(ctx context.Context, req dto.RegisterRequest) (*model.Contact, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.contacts.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && existing.PasswordHash != "":
		return nil, ErrEmailTaken
	case err == nil:
		// a guest who checked out before now claims the account
		existing.PasswordHash = string(hash)
		if existing.FirstName == "" {
			existing.FirstName = req.FirstName
		}
		if existing.LastName == "" {
			existing.LastName = req.LastName
		}
		if err := s.contacts.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update contact: %w", err)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find contact: %w", err)
	}

	contact := &model.Contact{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         model.RoleCustomer,
		PasswordHash: string(hash),
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

func (s *accountServiceImpl) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	contact, err := s.contacts.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	if contact.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(contact.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := accountClaims{
		Role: contact.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(contact.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.TokenResponse{Token: token, ExpiresAt: expires}, nil
}

func (s *accountServiceImpl) Authenticate(ctx context.Context, token string) (*model.Contact, error) {
	var claims accountClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	contact, err := s.contacts.FindByID(ctx, uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return contact, err
}

func (s *accountServiceImpl) Get(ctx context.Context, contactID uint) (*model.Contact, error) {
	return s.contacts.FindByID(ctx, contactID)
}

func (s *accountServiceImpl) AddAddress(ctx context.Context, contactID uint, req dto.AddressBookRequest) (*model.AddressBook, error) {
	address := &model.AddressBook{
		ContactID:         contactID,
		Description:       req.Description,
		Address:           req.Address.Model(),
		IsDefaultShipping: req.IsDefaultShipping,
		IsDefaultBilling:  req.IsDefaultBilling,
	}

	// the first address becomes the default for both
	existing, err := s.contacts.Addresses(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if len(existing) == 0 {
		address.IsDefaultShipping = true
		address.IsDefaultBilling = true
	}

	if err := s.contacts.AddAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("add address: %w", err)
	}
	return address, nil
}

func (s *accountServiceImpl) Addresses(ctx context.Context, contactID uint) ([]model.AddressBook, error) {
	return s.contacts.Addresses(ctx, contactID)
}

func (s *accountServiceImpl) Orders(ctx context.Context, contactID uint) ([]*model.Order, error) {
	return s.orders.ListByContact(ctx, contactID)
}

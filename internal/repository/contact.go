package repository

import (
	"context"
	"satchmo-store/internal/model"
	"strings"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	Update(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, contactID uint) (*model.Contact, error)
	FindByEmail(ctx context.Context, email string) (*model.Contact, error)
	AddAddress(ctx context.Context, address *model.AddressBook) error
	Addresses(ctx context.Context, contactID uint) ([]model.AddressBook, error)
}

type contactRepoImpl struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepoImpl{db: db}
}

func (r *contactRepoImpl) Create(ctx context.Context, contact *model.Contact) error {
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepoImpl) Update(ctx context.Context, contact *model.Contact) error {
	return r.db.WithContext(ctx).Omit("Addresses").Save(contact).Error
}

func (r *contactRepoImpl) FindByID(ctx context.Context, contactID uint) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.WithContext(ctx).
		Preload("Addresses").
		Where("id = ?", contactID).
		First(&contact).Error
	if err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

func (r *contactRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.WithContext(ctx).
		Preload("Addresses").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&contact).Error
	if err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

// AddAddress stores the entry, clearing the previous default when the new one is a default.
func (r *contactRepoImpl) AddAddress(ctx context.Context, address *model.AddressBook) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefaultShipping {
			if err := tx.Model(&model.AddressBook{}).
				Where("contact_id = ?", address.ContactID).
				Update("is_default_shipping", false).Error; err != nil {
				return err
			}
		}
		if address.IsDefaultBilling {
			if err := tx.Model(&model.AddressBook{}).
				Where("contact_id = ?", address.ContactID).
				Update("is_default_billing", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

func (r *contactRepoImpl) Addresses(ctx context.Context, contactID uint) ([]model.AddressBook, error) {
	var addresses []model.AddressBook
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("id").
		Find(&addresses).Error
	return addresses, err
}

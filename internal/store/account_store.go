package store

import (
	"fmt"

	"gorm.io/gorm"

	"inbox-scout-go/internal/fetcher"
	"inbox-scout-go/internal/model"
	"inbox-scout-go/internal/secrets"
)

// AccountStore manages linked mailbox accounts. Secrets are encrypted
// before they touch the database and decrypted only in ConnectionParams.
type AccountStore struct {
	db     *gorm.DB
	cipher *secrets.Cipher
}

// NewAccountStore creates a new account store
func NewAccountStore(db *gorm.DB, cipher *secrets.Cipher) *AccountStore {
	return &AccountStore{db: db, cipher: cipher}
}

// Create links a new mailbox for the given user.
func (s *AccountStore) Create(userID string, req model.ConnectAccountRequest) (*model.ConnectedAccount, error) {
	encrypted, err := s.cipher.Encrypt(req.IMAPPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt mailbox secret: %w", err)
	}

	account := model.ConnectedAccount{
		UserID:          userID,
		Email:           req.Email,
		IMAPHost:        req.IMAPHost,
		IMAPPort:        993,
		TLS:             true,
		EncryptedSecret: encrypted,
	}
	if req.IMAPPort != 0 {
		account.IMAPPort = req.IMAPPort
	}
	if req.TLS != nil {
		account.TLS = *req.TLS
	}

	if err := s.db.Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

// List returns all accounts linked by the given user.
func (s *AccountStore) List(userID string) ([]model.ConnectedAccount, error) {
	var accounts []model.ConnectedAccount
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListAll returns every linked account across users, for the background
// re-sync cycle.
func (s *AccountStore) ListAll() ([]model.ConnectedAccount, error) {
	var accounts []model.ConnectedAccount
	if err := s.db.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Get returns one account, scoped to its owner. Returns
// gorm.ErrRecordNotFound when the account does not exist or belongs to
// another user.
func (s *AccountStore) Get(userID string, id uint) (*model.ConnectedAccount, error) {
	var account model.ConnectedAccount
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete unlinks an account, scoped to its owner.
func (s *AccountStore) Delete(userID string, id uint) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.ConnectedAccount{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConnectionParams decrypts an account's secret and returns ready-to-use
// connection parameters. Callers must not hold them beyond one sync.
func (s *AccountStore) ConnectionParams(account *model.ConnectedAccount) (fetcher.ConnectionParams, error) {
	secret, err := s.cipher.Decrypt(account.EncryptedSecret)
	if err != nil {
		return fetcher.ConnectionParams{}, fmt.Errorf("failed to decrypt mailbox secret: %w", err)
	}

	return fetcher.ConnectionParams{
		Host:     account.IMAPHost,
		Port:     account.IMAPPort,
		TLS:      account.TLS,
		Username: account.Email,
		Secret:   secret,
	}, nil
}

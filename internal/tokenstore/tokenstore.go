// Package tokenstore caches Google master tokens encrypted with AES-256-GCM
// so later runs can resume a Keep session without the account password.
package tokenstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/ne2keep/internal/entities"
)

type TokenStore struct {
	db     *gorm.DB
	sealer *sealer
	now    func() time.Time
}

type Config struct {
	// DatabasePath is the SQLite state database
	DatabasePath string

	// EncryptionKey is a base64-encoded 32-byte key. When empty the key is
	// read from KeyFilePath, which is created on first use.
	EncryptionKey string
	KeyFilePath   string
}

func New(cfg Config) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	s, err := newSealer(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.KeepToken{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &TokenStore{db: db, sealer: s, now: time.Now}, nil
}

func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}
	if cfg.KeyFilePath == "" {
		return "", errors.New("no encryption key or key file configured")
	}

	if data, err := os.ReadFile(cfg.KeyFilePath); err == nil {
		return strings.TrimSpace(string(data)), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read key file %s: %w", cfg.KeyFilePath, err)
	}

	key, err := GenerateKey()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.KeyFilePath), 0700); err != nil {
		return "", fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(cfg.KeyFilePath, []byte(key), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", cfg.KeyFilePath, err)
	}

	log.Printf("Generated new token encryption key at %s", cfg.KeyFilePath)
	return key, nil
}

// SaveToken inserts or replaces the token for token.Email.
func (s *TokenStore) SaveToken(token *entities.DecryptedKeepToken) error {
	if token.Email == "" {
		return errors.New("token email is required")
	}

	sealed, err := s.sealer.seal(token.MasterToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt master token: %w", err)
	}

	record := &entities.KeepToken{
		Email:       token.Email,
		MasterToken: sealed,
		DeviceID:    token.DeviceID,
	}

	result := s.db.Where("email = ?", token.Email).
		Assign(map[string]any{
			"master_token": sealed,
			"device_id":    token.DeviceID,
			"updated_at":   s.now(),
		}).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}
	return nil
}

// GetToken returns the cached token for email, or nil when none exists.
func (s *TokenStore) GetToken(email string) (*entities.DecryptedKeepToken, error) {
	var record entities.KeepToken
	err := s.db.Where("email = ?", email).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	master, err := s.sealer.open(record.MasterToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt master token: %w", err)
	}

	return &entities.DecryptedKeepToken{
		Email:       record.Email,
		MasterToken: master,
		DeviceID:    record.DeviceID,
		LastUsedAt:  record.LastUsedAt,
	}, nil
}

// ListTokens returns cached tokens without decrypting them.
func (s *TokenStore) ListTokens() ([]entities.KeepToken, error) {
	var tokens []entities.KeepToken
	if err := s.db.Order("email").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// DeleteToken removes the token for email. It reports whether a token existed.
func (s *TokenStore) DeleteToken(email string) (bool, error) {
	result := s.db.Unscoped().Where("email = ?", email).Delete(&entities.KeepToken{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *TokenStore) UpdateLastUsed(email string) error {
	result := s.db.Model(&entities.KeepToken{}).
		Where("email = ?", email).
		Update("last_used_at", s.now())
	if result.Error != nil {
		return fmt.Errorf("failed to update last used: %w", result.Error)
	}
	return nil
}

func (s *TokenStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

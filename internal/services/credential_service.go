package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"genspecs/internal/repositories"
	"genspecs/internal/secrets"
)

// AuthKeyURL is OpenRouter's key-introspection endpoint.
const AuthKeyURL = "https://openrouter.ai/api/v1/auth/key"

// ValidationResult is the outcome of a key validation round-trip. It is
// always a value, never a Go error: validation failure is an expected state.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// CredentialService holds at most one API key: encrypted at rest in the
// storage table, validated against the provider before it is trusted. An
// unusable persisted key is treated as absent, never surfaced as valid.
type CredentialService struct {
	repo       repositories.StorageRepository
	httpClient *http.Client
	authURL    string

	ctx context.Context

	mu    sync.RWMutex
	key   string
	valid bool
}

func NewCredentialService(repo repositories.StorageRepository) *CredentialService {
	return &CredentialService{
		repo:       repo,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		authURL:    AuthKeyURL,
	}
}

// Startup loads and decrypts any persisted key and re-validates it. Any
// failure along the way self-clears the store: decryption or validation
// problems must not leave a broken key looking usable.
func (s *CredentialService) Startup(ctx context.Context) {
	s.ctx = ctx

	ciphertext, ok, err := s.repo.Get(ctx, repositories.KeyAPIKey)
	if err != nil {
		log.Printf("credentials: failed to load persisted key: %v", err)
		return
	}
	if !ok {
		return
	}

	key, err := secrets.Decrypt(ciphertext)
	if err != nil {
		log.Printf("credentials: failed to decrypt persisted key, clearing")
		s.ClearKey()
		return
	}

	result := s.ValidateKey(key)
	if !result.Valid {
		log.Printf("credentials: persisted key failed validation, clearing: %s", result.Error)
		s.ClearKey()
		return
	}

	s.mu.Lock()
	s.key = key
	s.valid = true
	s.mu.Unlock()
}

// SetKey validates the raw key against the provider and persists it
// encrypted only on success. On failure nothing is stored and any previous
// key remains active.
func (s *CredentialService) SetKey(raw string) ValidationResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ValidationResult{Valid: false, Error: "API key is required"}
	}

	result := s.ValidateKey(raw)
	if !result.Valid {
		return result
	}

	ciphertext, err := secrets.Encrypt(raw)
	if err != nil {
		return ValidationResult{Valid: false, Error: "Failed to save API key. Please try again."}
	}
	if err := s.repo.Put(s.storageContext(), repositories.KeyAPIKey, ciphertext); err != nil {
		log.Printf("credentials: failed to persist key: %v", err)
		return ValidationResult{Valid: false, Error: "Failed to save API key. Please try again."}
	}

	s.mu.Lock()
	s.key = raw
	s.valid = true
	s.mu.Unlock()

	return ValidationResult{Valid: true}
}

// ValidateKey performs the introspection round-trip. An empty argument
// validates the currently held key.
func (s *CredentialService) ValidateKey(key string) ValidationResult {
	if key == "" {
		key, _ = s.CurrentKey()
	}
	if key == "" {
		return ValidationResult{Valid: false, Error: "API key is required"}
	}

	req, err := http.NewRequestWithContext(s.storageContext(), http.MethodGet, s.authURL, nil)
	if err != nil {
		return ValidationResult{Valid: false, Error: "Failed to validate API key. Please check your internet connection."}
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ValidationResult{Valid: false, Error: "Failed to validate API key. Please check your internet connection."}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return ValidationResult{Valid: true}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ValidationResult{Valid: false, Error: "Invalid API key. Please check your OpenRouter API key."}
	case http.StatusPaymentRequired:
		return ValidationResult{Valid: false, Error: "Insufficient credits. Please add credits to your account."}
	case http.StatusForbidden:
		return ValidationResult{Valid: false, Error: "Access forbidden. Please check your API key permissions."}
	case http.StatusTooManyRequests:
		return ValidationResult{Valid: false, Error: "Rate limit exceeded. Please try again later."}
	default:
		return ValidationResult{Valid: false, Error: fmt.Sprintf("Validation failed (Status: %d)", resp.StatusCode)}
	}
}

// ClearKey removes the persisted ciphertext and resets the in-memory state.
// No network call.
func (s *CredentialService) ClearKey() {
	if err := s.repo.Delete(s.storageContext(), repositories.KeyAPIKey); err != nil {
		log.Printf("credentials: failed to delete persisted key: %v", err)
	}

	s.mu.Lock()
	s.key = ""
	s.valid = false
	s.mu.Unlock()
}

// CurrentKey returns the in-memory key and whether it has been validated.
func (s *CredentialService) CurrentKey() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.valid
}

// HasValidKey reports whether a validated key is loaded. Bound to the
// frontend so the wizard can gate generation on credentials.
func (s *CredentialService) HasValidKey() bool {
	_, valid := s.CurrentKey()
	return valid
}

func (s *CredentialService) storageContext() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "wine-admin"

// KeyringStore keeps the record as one secret in the OS credential manager.
type KeyringStore struct {
	account string
}

// NewKeyringStore returns a store keyed by account, usually the API base URL.
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: account}
}

func (s *KeyringStore) Load(context.Context) (*Record, error) {
	secret, err := keyring.Get(keyringService, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(secret), &rec); err != nil {
		return nil, fmt.Errorf("decode keyring session: %w", err)
	}
	if !rec.Complete() {
		return nil, nil
	}
	return &rec, nil
}

func (s *KeyringStore) Save(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := keyring.Set(keyringService, s.account, string(data)); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear(context.Context) error {
	if err := keyring.Delete(keyringService, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring: %w", err)
	}
	return nil
}

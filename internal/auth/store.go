// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"sync"

	"github.com/jeranaias/scout-tui/internal/model"
)

// CredentialStore holds the credential between runs.
type CredentialStore interface {
	// Get returns the credential; ok is false when none is stored.
	Get() (cred model.Credential, ok bool, err error)
	// Set replaces the stored credential.
	Set(cred model.Credential) error
	// Clear removes the stored credential.
	Clear() error
}

// MemoryStore is an in-process CredentialStore.
type MemoryStore struct {
	mu   sync.Mutex
	cred model.Credential
	set  bool
}

// NewMemoryStore returns a store holding cred, or an empty store if cred
// is not valid.
func NewMemoryStore(cred model.Credential) *MemoryStore {
	return &MemoryStore{cred: cred, set: cred.Valid()}
}

func (m *MemoryStore) Get() (model.Credential, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, m.set, nil
}

func (m *MemoryStore) Set(cred model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred, m.set = cred, cred.Valid()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred, m.set = model.Credential{}, false
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jeranaias/scout-tui/internal/model"
)

// credentialTimeout bounds each credential read/write. The gatekeeper
// consults the credential on every request, so it must never hang.
const credentialTimeout = 5 * time.Second

// CredentialStore persists the credential under KeyToken and KeyIsAdmin.
type CredentialStore struct {
	store *LocalStore
}

// NewCredentialStore wraps a LocalStore.
func NewCredentialStore(store *LocalStore) *CredentialStore {
	return &CredentialStore{store: store}
}

// Get returns the stored credential. ok is false when no token is present.
func (c *CredentialStore) Get() (model.Credential, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), credentialTimeout)
	defer cancel()

	token, err := c.store.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return model.Credential{}, false, nil
	}
	if err != nil {
		return model.Credential{}, false, err
	}

	cred := model.Credential{Token: token}
	if v, err := c.store.Get(ctx, KeyIsAdmin); err == nil {
		cred.IsAdmin, _ = strconv.ParseBool(v)
	}
	if !cred.Valid() {
		return model.Credential{}, false, nil
	}
	return cred, true, nil
}

// Set stores both fields atomically.
func (c *CredentialStore) Set(cred model.Credential) error {
	ctx, cancel := context.WithTimeout(context.Background(), credentialTimeout)
	defer cancel()

	return c.store.SetMany(ctx, map[string]string{
		KeyToken:   cred.Token,
		KeyIsAdmin: strconv.FormatBool(cred.IsAdmin),
	})
}

// Clear removes the token and admin flag.
func (c *CredentialStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), credentialTimeout)
	defer cancel()

	return c.store.Delete(ctx, KeyToken, KeyIsAdmin)
}

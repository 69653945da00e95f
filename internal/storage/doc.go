// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client-local state for scout.
//
// State is a small key/value table in a pure Go SQLite database
// (~/.scout/state.db). Only a handful of fixed keys are used: the bearer
// token, the admin flag, and a free-form settings blob. Session transcripts
// are never stored here; the server owns them.
//
// # Key Types
//
//   - LocalStore: the key/value table
//   - CredentialStore: auth.CredentialStore backed by a LocalStore
//   - Settings: the user settings blob (verify_json and friends)
//   - Watcher: fsnotify-based change notification for the state file
//
// # Usage
//
//	st, err := storage.Open(cfg.Storage.StatePath)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	creds := storage.NewCredentialStore(st)
package storage

// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package common package is used to store common functions and variables
package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KVStore is the global key-value store
var (
	KVStore *KeyValueStore
)

const (
	// ErrKVKeyNotFound is the generic message for key not found errors
	ErrKVKeyNotFound = "key not found in key-value store"
)

// KVSErrorIsKeyNotFound checks if the given error indicates that a key was not found in the key-value store.
func KVSErrorIsKeyNotFound(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(strings.TrimSpace(err.Error()))
	if errMsg == ErrKVKeyNotFound {
		return true
	}
	return strings.HasPrefix(errMsg, "key") && strings.Contains(errMsg, "not found")
}

// Properties defines the additional attributes for each key-value entry.
type Properties struct {
	Source    string        `yaml:"source"` // The component that stored the entry
	CtxID     string        // Context ID for more specific identification
	Type      string        // The type of the stored value
	TTL       time.Duration // Zero means the entry never expires
	ID        string        // Unique entry ID, assigned by Set
	CreatedAt time.Time     // Assigned by Set
	ExpiresAt time.Time     // Assigned by Set when TTL > 0
}

// Entry represents a key-value pair along with its properties.
type Entry struct {
	Value      any
	Properties Properties
}

func (e Entry) expired(now time.Time) bool {
	return !e.Properties.ExpiresAt.IsZero() && !now.Before(e.Properties.ExpiresAt)
}

// KeyValueStore stores key-value pairs with properties and ensures thread safety.
// When maxEntries is positive, storing a new key in a full store evicts the
// expired entries first and then the oldest ones.
type KeyValueStore struct {
	store      map[string]Entry
	order      []string
	maxEntries int
	mutex      sync.RWMutex
	now        func() time.Time
}

// NewBoundedKeyValueStore initializes a key-value store holding at most
// maxEntries entries (0 means unbounded).
func NewBoundedKeyValueStore(maxEntries int) *KeyValueStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &KeyValueStore{
		store:      make(map[string]Entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// NewKVStoreProperty initializes a new Properties object.
func NewKVStoreProperty(source string, ctxID string, ttl time.Duration) Properties {
	return Properties{
		Source: source,
		CtxID:  ctxID,
		TTL:    ttl,
	}
}

// createKeyWithCtx combines the key and CtxID to create a unique key.
func createKeyWithCtx(key string, ctxID string) string {
	return fmt.Sprintf("%s:%s", strings.TrimSpace(key), strings.TrimSpace(ctxID))
}

// SetMaxEntries changes the capacity of the store, evicting entries if needed.
func (kv *KeyValueStore) SetMaxEntries(maxEntries int) {
	if maxEntries < 0 {
		maxEntries = 0
	}
	kv.mutex.Lock()
	defer kv.mutex.Unlock()
	kv.maxEntries = maxEntries
	if maxEntries > 0 {
		kv.evict(len(kv.store) - maxEntries)
	}
}

// Set stores a value along with its properties for a given key and context.
func (kv *KeyValueStore) Set(key string, value interface{}, properties Properties) error {
	if kv == nil {
		return errors.New("key-value store is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if value == nil {
		value = ""
	}
	if strings.TrimSpace(properties.Type) == "" {
		properties.Type = reflect.TypeOf(value).String()
	}

	fullKey := createKeyWithCtx(key, properties.CtxID)
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	now := kv.now()
	properties.ID = uuid.New().String()
	properties.CreatedAt = now
	properties.ExpiresAt = time.Time{}
	if properties.TTL > 0 {
		properties.ExpiresAt = now.Add(properties.TTL)
	}

	if _, exists := kv.store[fullKey]; exists {
		kv.removeFromOrder(fullKey)
	} else if kv.maxEntries > 0 && len(kv.store) >= kv.maxEntries {
		kv.evict(len(kv.store) - kv.maxEntries + 1)
	}
	kv.store[fullKey] = Entry{Value: value, Properties: properties}
	kv.order = append(kv.order, fullKey)
	return nil
}

// evict removes at least n entries, expired ones first. Callers hold the lock.
func (kv *KeyValueStore) evict(n int) {
	if n <= 0 {
		return
	}
	now := kv.now()
	kept := kv.order[:0]
	for _, k := range kv.order {
		if kv.store[k].expired(now) {
			delete(kv.store, k)
			n--
			continue
		}
		kept = append(kept, k)
	}
	kv.order = kept
	for n > 0 && len(kv.order) > 0 {
		delete(kv.store, kv.order[0])
		kv.order = kv.order[1:]
		n--
	}
}

func (kv *KeyValueStore) removeFromOrder(fullKey string) {
	for i, k := range kv.order {
		if k == fullKey {
			kv.order = append(kv.order[:i], kv.order[i+1:]...)
			return
		}
	}
}

// Get retrieves the value and properties for a given key and context.
// Expired entries are reported as missing and removed.
func (kv *KeyValueStore) Get(key string, ctxID string) (any, Properties, error) {
	if kv == nil {
		return nil, Properties{}, errors.New(ErrKVKeyNotFound)
	}

	fullKey := createKeyWithCtx(key, ctxID)
	kv.mutex.RLock()
	entry, exists := kv.store[fullKey]
	kv.mutex.RUnlock()

	if exists && entry.expired(kv.now()) {
		kv.mutex.Lock()
		// the entry may have been replaced in the meantime
		if current, ok := kv.store[fullKey]; ok && current.Properties.ID == entry.Properties.ID {
			delete(kv.store, fullKey)
			kv.removeFromOrder(fullKey)
		}
		kv.mutex.Unlock()
		exists = false
	}
	if !exists {
		msg := fmt.Sprintf("key '%s' not found for context '%s'", key, ctxID)
		return nil, Properties{}, errors.New(msg)
	}
	return entry.Value, entry.Properties, nil
}

// Size returns the number of key-value pairs in the store.
func (kv *KeyValueStore) Size() int {
	if kv == nil {
		return 0
	}
	kv.mutex.RLock()
	defer kv.mutex.RUnlock()

	return len(kv.store)
}

// Delete removes a key-value pair by key and context.
func (kv *KeyValueStore) Delete(key string, ctxID string) error {
	if kv == nil {
		return errors.New("key-value store is nil")
	}
	fullKey := createKeyWithCtx(key, ctxID)
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if _, exists := kv.store[fullKey]; !exists {
		msg := fmt.Sprintf("key '%s' not found for context '%s'", key, ctxID)
		return errors.New(msg)
	}
	delete(kv.store, fullKey)
	kv.removeFromOrder(fullKey)
	return nil
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (kv *KeyValueStore) DeleteExpired() int {
	if kv == nil {
		return 0
	}
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	now := kv.now()
	removed := 0
	kept := kv.order[:0]
	for _, k := range kv.order {
		if kv.store[k].expired(now) {
			delete(kv.store, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	kv.order = kept
	return removed
}

// DeleteAll removes all key-value pairs from the store.
func (kv *KeyValueStore) DeleteAll() {
	if kv == nil {
		return
	}
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	kv.store = make(map[string]Entry)
	kv.order = nil
}

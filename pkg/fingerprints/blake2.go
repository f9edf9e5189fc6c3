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

// Package fingerprints computes the content fingerprints used to key cached traces
package fingerprints

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spaolacci/murmur3"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint computes a stable, hex encoded digest of its input.
type Fingerprint interface {
	Compute(data string) string
}

// BLAKE2 implements the Fingerprint interface for BLAKE2 fingerprints.
type BLAKE2 struct{}

// Compute computes the BLAKE2b-256 fingerprint of a given data.
func (b BLAKE2) Compute(data string) string {
	hash := blake2b.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// SHA256 implements the Fingerprint interface for SHA-256 fingerprints.
type SHA256 struct{}

// Compute computes the SHA-256 fingerprint of a given data.
func (s SHA256) Compute(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// MurmurHash implements the Fingerprint interface for MurmurHash3 fingerprints.
// It is not collision resistant; use it only where inputs are trusted.
type MurmurHash struct{}

// Compute computes the 128 bit MurmurHash3 fingerprint of a given data.
func (m MurmurHash) Compute(data string) string {
	h1, h2 := murmur3.Sum128([]byte(data))
	return fmt.Sprintf("%016x%016x", h1, h2)
}

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

package fingerprints

import (
	"fmt"
	"strings"
)

// FingerprintType represents the type of fingerprint algorithm.
type FingerprintType int

const (
	// TypeBLAKE2 represents the BLAKE2 fingerprint type.
	TypeBLAKE2 FingerprintType = iota
	// TypeSHA256 represents the SHA256 fingerprint type.
	TypeSHA256
	// TypeMurmurHash represents the MurmurHash fingerprint type.
	TypeMurmurHash
)

var typeNames = map[string]FingerprintType{
	"blake2":  TypeBLAKE2,
	"blake2b": TypeBLAKE2,
	"sha256":  TypeSHA256,
	"murmur":  TypeMurmurHash,
	"murmur3": TypeMurmurHash,
}

// ParseFingerprintType maps a configuration name such as "blake2b" or
// "murmur3" to its FingerprintType.
func ParseFingerprintType(name string) (FingerprintType, error) {
	if t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown fingerprint type %q", name)
}

// FingerprintFactory creates an instance of a Fingerprint implementation.
func FingerprintFactory(fType FingerprintType) (Fingerprint, error) {
	switch fType {
	case TypeBLAKE2:
		return &BLAKE2{}, nil
	case TypeSHA256:
		return &SHA256{}, nil
	case TypeMurmurHash:
		return &MurmurHash{}, nil
	default:
		return nil, fmt.Errorf("unknown fingerprint type")
	}
}

// New returns the Fingerprint configured by name.
func New(name string) (Fingerprint, error) {
	t, err := ParseFingerprintType(name)
	if err != nil {
		return nil, err
	}
	return FingerprintFactory(t)
}

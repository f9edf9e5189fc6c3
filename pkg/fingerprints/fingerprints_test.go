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
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		fp       Fingerprint
		data     string
		expected string
	}{
		{"BLAKE2 empty", BLAKE2{}, "", "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
		{"SHA256 empty", SHA256{}, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"SHA256 abc", SHA256{}, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"MurmurHash empty", MurmurHash{}, "", "00000000000000000000000000000000"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.fp.Compute(test.data); got != test.expected {
				t.Errorf("Expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestComputeIsStableAndDistinct(t *testing.T) {
	for _, name := range []string{"blake2b", "sha256", "murmur3"} {
		fp, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		a := fp.Compute("x = 1\n")
		if a != fp.Compute("x = 1\n") {
			t.Errorf("%s: fingerprint is not stable", name)
		}
		if a == fp.Compute("x = 2\n") {
			t.Errorf("%s: different inputs share a fingerprint", name)
		}
	}
}

func TestFingerprintFactory(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{"blake2", "*fingerprints.BLAKE2", false},
		{" BLAKE2B ", "*fingerprints.BLAKE2", false},
		{"sha256", "*fingerprints.SHA256", false},
		{"murmur3", "*fingerprints.MurmurHash", false},
		{"md5", "", true},
	}

	for _, test := range tests {
		fp, err := New(test.name)
		if test.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected an error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q): unexpected error %v", test.name, err)
			continue
		}
		if got := typeName(fp); got != test.expected {
			t.Errorf("New(%q): expected %s, got %s", test.name, test.expected, got)
		}
	}

	if _, err := FingerprintFactory(FingerprintType(99)); err == nil {
		t.Errorf("Expected an error for an unknown type")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *BLAKE2:
		return "*fingerprints.BLAKE2"
	case *SHA256:
		return "*fingerprints.SHA256"
	case *MurmurHash:
		return "*fingerprints.MurmurHash"
	}
	return "unknown"
}

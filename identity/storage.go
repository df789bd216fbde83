// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/adrianbrink/routing/xorname"
)

// fullIdFile is the on-disk JSON shape a FullId round-trips through,
// grounded on the teacher's fileKeyStorage keyFileData pattern: hex
// rather than JWK-encoded, since the routing engine's keys are raw
// Ed25519/X25519 material rather than the teacher's JWK-exportable
// sagecrypto.KeyPair.
type fullIdFile struct {
	SigningPriv string `json:"signing_priv"`
	SigningPub  string `json:"signing_pub"`
	EncryptPub  string `json:"encrypt_pub"`
	EncryptPriv string `json:"encrypt_priv"`
	Name        string `json:"name"`
	Relocated   bool   `json:"relocated"`
}

// SaveToFile persists full's key material and relocation state to
// path as JSON, mode 0600 (private key material).
func SaveToFile(full *FullId, path string) error {
	file := fullIdFile{
		SigningPriv: hex.EncodeToString(full.Signing),
		SigningPub:  hex.EncodeToString(full.SigningPub),
		EncryptPub:  hex.EncodeToString(full.EncryptPub[:]),
		EncryptPriv: hex.EncodeToString(full.EncryptPriv[:]),
		Name:        full.name.String(),
		Relocated:   full.relocated,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("identity: marshaling key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("identity: writing key file: %w", err)
	}
	return nil
}

// LoadFromFile reads a FullId previously written by SaveToFile.
func LoadFromFile(path string) (*FullId, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("identity: reading key file: %w", err)
	}

	var file fullIdFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("identity: parsing key file: %w", err)
	}

	signingPriv, err := hex.DecodeString(file.SigningPriv)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding signing private key: %w", err)
	}
	signingPub, err := hex.DecodeString(file.SigningPub)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding signing public key: %w", err)
	}
	encPub, err := decodeFixed32(file.EncryptPub)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding encryption public key: %w", err)
	}
	encPriv, err := decodeFixed32(file.EncryptPriv)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding encryption private key: %w", err)
	}
	name, err := xorname.Parse(file.Name)
	if err != nil {
		return nil, fmt.Errorf("identity: decoding routing name: %w", err)
	}

	full := New(ed25519.PrivateKey(signingPriv), ed25519.PublicKey(signingPub), encPub, encPriv)
	full.name = name
	full.relocated = file.Relocated
	return full, nil
}

func decodeFixed32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("identity: expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

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

package main

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianbrink/routing/identity"
)

var (
	keygenType   string
	keygenOutput string
	keygenForce  bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate node identity key material",
	Long: `Generate a fresh node identity: an Ed25519 signing key pair plus
an independently generated X25519 encryption key pair, written in the hex-JSON
form routingd run/inspect expect.

--type secp256k1 generates a standalone alternate signing key pair for
external key-management tooling; it is printed, not saved, since this
engine's FullId (and the wire protocol it signs) is Ed25519-only.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keygenType, "type", "t", "ed25519", "Key type (ed25519, secp256k1)")
	keygenCmd.Flags().StringVarP(&keygenOutput, "output", "o", "routingd-identity.json", "Output file (ed25519 only; ignored for secp256k1)")
	keygenCmd.Flags().BoolVarP(&keygenForce, "force", "f", false, "Overwrite the output file if it already exists")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	kt := identity.KeyType(keygenType)

	if kt == identity.KeyTypeSecp256k1 {
		return printStandaloneKeyPair(kt)
	}

	if !keygenForce {
		if _, err := os.Stat(keygenOutput); err == nil {
			return fmt.Errorf("refusing to overwrite existing %s (pass --force)", keygenOutput)
		}
	}

	signing, err := identity.GenerateKeyPairWithType(kt)
	if err != nil {
		return fmt.Errorf("generating signing key pair: %w", err)
	}
	signingPriv, ok := signing.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		return fmt.Errorf("key type %s is not usable as a node identity", keygenType)
	}
	signingPub, _ := signing.PublicKey().(ed25519.PublicKey)

	enc, err := identity.GenerateEncryptionKeyPair()
	if err != nil {
		return fmt.Errorf("generating encryption key pair: %w", err)
	}

	full := identity.New(signingPriv, signingPub, enc.PublicKey(), enc.PrivateKey())
	if err := identity.SaveToFile(full, keygenOutput); err != nil {
		return fmt.Errorf("saving identity: %w", err)
	}

	fmt.Printf("Identity written to %s\n", keygenOutput)
	fmt.Printf("  Name: %s\n", full.Name())
	return nil
}

// printStandaloneKeyPair handles key types that aren't wired into
// FullId: it prints the raw key material for the operator to manage
// with their own tooling rather than pretending routingd can load it.
func printStandaloneKeyPair(kt identity.KeyType) error {
	kp, err := identity.GenerateKeyPairWithType(kt)
	if err != nil {
		return fmt.Errorf("generating %s key pair: %w", kt, err)
	}

	pub := kp.PublicKey()
	out := map[string]string{
		"type":       string(kt),
		"public_key": hexEncodeAny(pub),
	}
	type serializer interface{ Serialize() []byte }
	if sk, ok := kp.PrivateKey().(serializer); ok {
		out["private_key"] = hex.EncodeToString(sk.Serialize())
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	fmt.Fprintln(os.Stderr, "note: this key type is not usable as a routingd node identity; generated for external tooling only")
	return nil
}

func hexEncodeAny(v stdcrypto.PublicKey) string {
	type byteser interface{ SerializeCompressed() []byte }
	if b, ok := v.(byteser); ok {
		return hex.EncodeToString(b.SerializeCompressed())
	}
	if b, ok := v.(ed25519.PublicKey); ok {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%v", v)
}

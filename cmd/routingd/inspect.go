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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianbrink/routing/config"
	"github.com/adrianbrink/routing/identity"
)

var inspectConfigPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the fully-resolved configuration and identity",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectConfigPath, "config", "c", "", "Path to the routingd config file (required)")
	_ = inspectCmd.MarkFlagRequired("config")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(inspectConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	full, err := identity.LoadFromFile(cfg.IdentityFile)
	if err != nil {
		fmt.Printf("identity: not found at %s (run `routingd keygen` first)\n", cfg.IdentityFile)
		return nil
	}
	fmt.Printf("identity: name=%s relocated=%v\n", full.Name(), full.IsRelocated())
	return nil
}

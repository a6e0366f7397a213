// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config resolves the typed application settings from layered
// sources (explicit overrides, environment, dotenv, file secrets, YAML)
// and owns the one configuration instance used for the process lifetime.
package config

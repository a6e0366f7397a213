// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

// GlobalConfig holds the application wide settings. Keys present in the
// sources without a matching field are tolerated and ignored.
type GlobalConfig struct {
	LogLevel string `env:"LOG_LEVEL,required"`
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package tracking defines the experiment tracking backend operations
// consumed by the experiment logger, decoupled from the wire protocol.
package tracking

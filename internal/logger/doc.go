// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps the underlying logging stack behind a consistent
// interface. It fixes the line format and makes loggers available through
// context helpers, so the layers below the command never carry a logger field.
package logger

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package rest implements the tracking client against the MLflow HTTP API.
package rest

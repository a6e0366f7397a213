// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package experiment

import "errors"

var (
	// ErrRunNotActive is returned when a logging operation is attempted
	// outside of a run scope.
	ErrRunNotActive = errors.New("no experiment run is active")

	// ErrRunActive is returned by Start when a run is already in progress.
	ErrRunActive = errors.New("an experiment run is already active")
)

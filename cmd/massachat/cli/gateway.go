// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"

	"github.com/anikeaty08/MassaChat/lib/ledger"
	"github.com/anikeaty08/MassaChat/lib/pinstore"
)

// GatewayError maps a failed ledger or pin store call onto the command
// error taxonomy. Transient unreachability (including a local deadline)
// exits retryable; permanent refusals exit as validation; a taken
// username is a conflict. The original error chain is preserved for
// errors.Is and errors.As.
func GatewayError(err error) *ToolError {
	switch {
	case ledger.IsCallError(err, ledger.CodeUsernameTaken):
		return Conflict("%w", err)
	case ledger.IsTransient(err), pinstore.IsTransient(err):
		return Transient("%w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return Transient("%w", err)
	case ledger.IsRejected(err), pinstore.IsStoreError(err, pinstore.CodeRejected):
		return Validation("%w", err)
	case pinstore.IsNotFound(err):
		return NotFound("%w", err)
	default:
		return Internal("%w", err)
	}
}

package farm

import "errors"

// Configuration and credential errors.
var (
	// ErrMissingConfiguration is returned when the client is constructed
	// without a chain id and without a session that can report one.
	ErrMissingConfiguration = errors.New("either a chain id or a connected session is required")
	// ErrNoSigner is returned when a workflow needs an account address or a
	// signing capability and the session is read-only.
	ErrNoSigner = errors.New("no signer bound to the client")
)

// Precondition errors. Each kind is distinct so callers can branch on cause
// with errors.Is. Every check happens before the corresponding
// state-changing call is submitted.
var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInsufficientBalance      = errors.New("insufficient token balance")
	ErrInsufficientApproval     = errors.New("insufficient approved amount")
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")
	ErrInsufficientPoolBalance  = errors.New("insufficient pool balance")
	// ErrInvalidTokenAmounts is returned by a range-vault deposit when the
	// supplied amounts do not cover both of the vault's configured assets.
	ErrInvalidTokenAmounts = errors.New("invalid token amounts")
)

// Lookup errors, one per catalog index. Each is wrapped with the lookup key
// that missed. A miss is a normal outcome (e.g. a typo'd vault name) and is
// distinguishable from a remote data-source failure.
var (
	ErrTokenSymbolNotFound  = errors.New("no token with symbol")
	ErrTokenAddressNotFound = errors.New("no token with address")
	ErrVaultNameNotFound    = errors.New("no vault with name")
	ErrVaultAddressNotFound = errors.New("no vault with address")
	ErrVaultTokensNotFound  = errors.New("no vault with underlying tokens")
	ErrVaultPoolNotFound    = errors.New("no vault for pool")
	ErrPoolNameNotFound     = errors.New("no pool with name")
	ErrPoolVaultNotFound    = errors.New("no pool for vault")
)

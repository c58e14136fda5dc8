package voucher

import "github.com/rgsons/storeops/internal/platform/httpx"

var (
	// ErrConfigNotFound indicates no configuration is stored for the type.
	ErrConfigNotFound = httpx.NewError(httpx.ErrNotFound, "Configuration not found")
	// ErrInvalidConfig wraps validation failures of a configuration or request.
	ErrInvalidConfig = httpx.NewError(httpx.ErrValidation, "voucher: invalid configuration")
	// ErrInactiveConfig is returned when numbers are requested for an inactive type.
	ErrInactiveConfig = httpx.NewError(httpx.ErrConflict, "voucher: configuration is inactive")
	// ErrStoreRequired is returned when a store-wise series is used without a store.
	ErrStoreRequired = httpx.NewError(httpx.ErrValidation, "voucher: store code is required for STORE_WISE numbering")
	// ErrUnknownStore is returned when the store code does not exist.
	ErrUnknownStore = httpx.NewError(httpx.ErrValidation, "voucher: invalid store code")
	// ErrDuplicateNumber signals a collision in voucher_number_log.
	ErrDuplicateNumber = httpx.NewError(httpx.ErrConflict, "voucher: number already issued")
	// ErrBusy is returned when another issuer holds the sequence lock.
	ErrBusy = httpx.NewError(httpx.ErrConflict, "voucher: sequence is busy, retry shortly")
	// ErrDuplicateRequest is returned when an idempotency key was already used.
	ErrDuplicateRequest = httpx.NewError(httpx.ErrConflict, "voucher: request already processed")
)

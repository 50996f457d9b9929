package models

import "errors"

// Business errors: the caller can recover by adjusting the request.
var (
	ErrOutOfOrderSample  = errors.New("out of order sample")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInvalidWeights    = errors.New("invalid weights")
	ErrSlippageExceeded  = errors.New("slippage exceeded")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrOrderNotFound = errors.New("order not found")
	// ErrStoreUnavailable is an infrastructure fault; callers retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsBusiness reports whether err is a recoverable business rejection.
func IsBusiness(err error) bool {
	for _, target := range []error{
		ErrOutOfOrderSample,
		ErrInsufficientData,
		ErrInvalidWeights,
		ErrSlippageExceeded,
		ErrUnsupportedFormat,
		ErrInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

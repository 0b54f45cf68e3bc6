package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the symbol could not be mapped to an upstream asset.
	ErrNotFound = errors.New("symbol not found")
	// ErrRatesUnavailable means the fiat snapshot is incomplete or zero-valued.
	ErrRatesUnavailable = errors.New("fiat rates unavailable")
	// ErrNoPriceData means the resolved identifier has no usable price.
	ErrNoPriceData = errors.New("no price data")
	// ErrConnectivity is a transport-level failure talking to an upstream.
	ErrConnectivity = errors.New("upstream unreachable")
	// ErrMalformedResponse means the upstream payload had an unexpected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Error is returned by every provider. Kind is one of the Err* sentinels,
// Err is the optional underlying cause.
type Error struct {
	Kind   error
	Symbol string
	Err    error
}

// NewError builds an *Error for symbol.
func NewError(kind error, symbol string, cause error) *Error {
	return &Error{Kind: kind, Symbol: symbol, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Symbol, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf reports the sentinel that best describes err.
// The order matters: a resolver miss caused by a timeout is still a miss.
func KindOf(err error) error {
	var pe *Error
	if errors.As(err, &pe) && pe.Kind != nil {
		return pe.Kind
	}
	for _, k := range []error{ErrNotFound, ErrRatesUnavailable, ErrNoPriceData, ErrMalformedResponse, ErrConnectivity} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrConnectivity
}

package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/tubegrab/tubegrab/internal/types"
)

// failureTable maps known upstream failure substrings to the error taxonomy.
// Matching is ordered; the first hit wins. Keeping the fragile string
// matching here, at the boundary, lets everything downstream work with typed
// errors only.
var failureTable = []struct {
	substr  string
	reason  types.FailureReason
	message string
}{
	{"too many requests", types.ReasonRateLimited, "Too many requests. Please wait a moment and try again"},
	{"429", types.ReasonRateLimited, "Too many requests. Please wait a moment and try again"},
	{"copyright", types.ReasonCopyright, "Video is protected by copyright"},
	{"unavailable", types.ReasonUnavailable, "Video is unavailable or has been removed"},
	{"removed", types.ReasonUnavailable, "Video is unavailable or has been removed"},
	{"private", types.ReasonPrivate, "Video is private"},
	{"age", types.ReasonRestricted, "Video is age-restricted or region-locked"},
	{"restrict", types.ReasonRestricted, "Video is age-restricted or region-locked"},
	{"region", types.ReasonRestricted, "Video is age-restricted or region-locked"},
	{"login", types.ReasonRestricted, "Video is age-restricted or region-locked"},
}

// Classify maps an upstream failure onto the error taxonomy. Context errors
// and already-typed errors pass through untouched; unmatched failures keep
// their raw message with ReasonUnknown.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, types.ErrRenditionNotFound) {
		return err
	}
	var resolveErr *types.ResolveError
	if errors.As(err, &resolveErr) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, f := range failureTable {
		if strings.Contains(msg, f.substr) {
			return &types.ResolveError{Reason: f.reason, Message: f.message, Cause: err}
		}
	}
	return &types.ResolveError{Reason: types.ReasonUnknown, Message: err.Error(), Cause: err}
}

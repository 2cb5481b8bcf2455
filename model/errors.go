// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ErrorKind classifies failures so that callers can react to them
// without inspecting messages.
type ErrorKind string

// Kinds of failure surfaced by the gateway.
const (
	ErrorKindConfigLoad ErrorKind = "config-load"
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindConflict   ErrorKind = "conflict"
	ErrorKindParse      ErrorKind = "parse"
	ErrorKindUnknown    ErrorKind = "unknown"
)

// LedgerError is a failure of a ledger operation annotated with its kind.
type LedgerError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewLedgerError wraps err as a LedgerError of the given kind.
func NewLedgerError(kind ErrorKind, op string, err error) *LedgerError {
	return &LedgerError{Kind: kind, Op: op, Err: err}
}

func (e *LedgerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first LedgerError in err's chain, or
// ErrorKindUnknown if there is none.
func KindOf(err error) ErrorKind {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Kind
	}
	return ErrorKindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func NewErrorResponseFromReader(reader io.Reader) (*ErrorResponse, error) {
	var response ErrorResponse
	err := json.NewDecoder(reader).Decode(&response)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode error response")
	}
	return &response, nil
}

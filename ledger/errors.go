// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger

import "errors"

// Error kinds. Every ledger error matches exactly one of these with
// errors.Is
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrState         = errors.New("state error")
	ErrResource      = errors.New("resource error")
	ErrNotFound      = errors.New("not found")
)

// Error is a typed ledger error. It matches both itself and its kind with
// errors.Is
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the kind sentinel of the error
func (e *Error) Kind() error {
	return e.kind
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Validation errors
var (
	ErrEmptyContentHash   = newError(ErrValidation, "content hash cannot be empty")
	ErrInvalidProbability = newError(ErrValidation, "AI probability must be between 0 and 10000")
	ErrContentTypeTooLong = newError(ErrValidation, "content type too long (max 20 bytes)")
	ErrModelNameTooLong   = newError(ErrValidation, "detection model name too long (max 32 bytes)")
	ErrUriTooLong         = newError(ErrValidation, "metadata URI too long (max 200 bytes)")
	ErrNameTooLong        = newError(ErrValidation, "certificate name too long (max 32 bytes)")
	ErrSymbolTooLong      = newError(ErrValidation, "certificate symbol too long (max 10 bytes)")
	ErrInvalidIdentity    = newError(ErrValidation, "identity cannot be empty")
	ErrInvalidAssetID     = newError(ErrValidation, "asset id cannot be empty")
	ErrInvalidTree        = newError(ErrValidation, "tree reference cannot be empty")
)

// Authorization errors
var (
	ErrUnauthorized = newError(ErrAuthorization, "unauthorized")
)

// State errors
var (
	ErrProgramPaused            = newError(ErrState, "program is paused")
	ErrCertificateAlreadyLinked = newError(ErrState, "certificate already linked")
	ErrAlreadyVerified          = newError(ErrState, "already verified")
	ErrAlreadyCompressed        = newError(ErrState, "already compressed")
)

// Resource errors
var (
	ErrAttestationExists  = newError(ErrResource, "attestation already exists")
	ErrAlreadyInitialized = newError(ErrResource, "program already initialized")
	ErrOverflow           = newError(ErrResource, "arithmetic overflow")
)

// Not found errors
var (
	ErrNotInitialized      = newError(ErrNotFound, "program not initialized")
	ErrAttestationNotFound = newError(ErrNotFound, "attestation not found")
)

// ErrorKind returns the name of the kind of err, "internal" for errors
// outside the taxonomy and "" for nil
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrResource):
		return "resource"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

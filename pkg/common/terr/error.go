// Copyright 2023 Tessera DB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package terr defines the error taxonomy of the engine.  Every error
// raised by tessera carries one of a small set of codes so that callers
// and internal dispatchers can branch on the class of failure instead of
// matching message strings.
package terr

import (
	"errors"
	"fmt"
)

type ErrorCode uint16

const (
	// ErrInternal marks a broken invariant.  It is a programming error,
	// never a recoverable runtime condition.
	ErrInternal ErrorCode = 20101

	// ErrNotSupported marks a strategy/operation combination that a
	// dispatcher must resolve by falling back to a general path.
	ErrNotSupported ErrorCode = 20105

	// ErrOOM marks a native or scratch buffer allocation failure.
	ErrOOM ErrorCode = 20103

	// ErrInvalidInput marks bad caller input, e.g. an empty key list.
	ErrInvalidInput ErrorCode = 20301
)

var errorNames = map[ErrorCode]string{
	ErrInternal:     "internal error",
	ErrNotSupported: "not supported",
	ErrOOM:          "out of memory",
	ErrInvalidInput: "invalid input",
}

type Error struct {
	code ErrorCode
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", errorNames[e.code], e.msg)
}

func (e *Error) Code() ErrorCode {
	return e.code
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

func NewInternal(format string, args ...any) *Error {
	return newError(ErrInternal, format, args...)
}

func NewNotSupported(format string, args ...any) *Error {
	return newError(ErrNotSupported, format, args...)
}

func NewOOM(format string, args ...any) *Error {
	return newError(ErrOOM, format, args...)
}

func NewInvalidInput(format string, args ...any) *Error {
	return newError(ErrInvalidInput, format, args...)
}

// IsCode reports whether err is a tessera error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

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

// Package types defines the closed set of column types the engine
// supports.  Dispatchers switch exhaustively on T; an unknown value
// reaching a dispatcher is an internal error.
package types

type T uint8

const (
	T_bool T = iota + 1
	T_int64
	T_float64
	// T_datetime is microseconds since the unix epoch, stored as int64.
	T_datetime
	T_varchar
	// T_dict is a dictionary-coded string column: uint32 codes into a
	// shared dictionary, code 0 reserved for null.
	T_dict
)

type Type struct {
	Oid T
}

func New(oid T) Type {
	return Type{Oid: oid}
}

func (t Type) String() string {
	switch t.Oid {
	case T_bool:
		return "bool"
	case T_int64:
		return "int64"
	case T_float64:
		return "float64"
	case T_datetime:
		return "datetime"
	case T_varchar:
		return "varchar"
	case T_dict:
		return "dict"
	}
	return "unknown"
}

// FixedSize returns the byte width of a fixed-width type, or 0 for
// variable-width types.
func (t Type) FixedSize() int {
	switch t.Oid {
	case T_bool:
		return 1
	case T_int64, T_float64, T_datetime:
		return 8
	case T_dict:
		return 4
	}
	return 0
}

func (t Type) IsFixedLen() bool {
	return t.FixedSize() != 0
}

// IsInteger reports whether the type has a native int64 representation,
// which is what the native aggregation path requires.
func (t Type) IsInteger() bool {
	return t.Oid == T_int64 || t.Oid == T_datetime
}

// Datetime is an epoch-microsecond timestamp.
type Datetime int64

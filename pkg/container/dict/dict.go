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

// Package dict is the shared value dictionary behind dictionary-coded
// columns.  Codes are dense, assigned in first-seen order starting at 1;
// code 0 is reserved for null.  A dict is shared by reference between the
// source column and any group table keyed on it.
package dict

// NullCode is never assigned to a value.
const NullCode uint32 = 0

type Dict struct {
	values []string
	codes  map[string]uint32
}

func New() *Dict {
	return &Dict{
		// values[0] is the null slot.
		values: make([]string, 1),
		codes:  make(map[string]uint32),
	}
}

// GetOrInsert returns the code for v, assigning the next code on first
// sight.
func (d *Dict) GetOrInsert(v string) uint32 {
	if code, ok := d.codes[v]; ok {
		return code
	}
	code := uint32(len(d.values))
	d.values = append(d.values, v)
	d.codes[v] = code
	return code
}

// CodeOf returns the code for v, or NullCode if v was never inserted.
func (d *Dict) CodeOf(v string) uint32 {
	return d.codes[v]
}

// Lookup resolves a code to its value.  Looking up NullCode returns the
// empty string.
func (d *Dict) Lookup(code uint32) string {
	return d.values[code]
}

// Len counts the distinct values, excluding the null slot.
func (d *Dict) Len() int {
	return len(d.values) - 1
}

// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package instancetypes

import (
	"slices"

	"github.com/samber/lo"
)

// Set holds distinct instance type names
type Set map[string]struct{}

// NewSet creates a Set seeded with the given names
func NewSet(names ...string) Set {
	s := Set{}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add inserts name, ignoring repeats
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Contains reports whether name is in the set
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of distinct names
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the names in ascending lexicographic order
func (s Set) Sorted() []string {
	names := lo.Keys(s)
	slices.Sort(names)
	return names
}

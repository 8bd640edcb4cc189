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

package cli

import (
	"regexp"
)

// BoolMe takes an interface and returns a pointer to a bool value
// If the underlying interface kind is not bool or *bool then nil is returned
func (*CommandLineInterface) BoolMe(i interface{}) *bool {
	if i == nil {
		return nil
	}
	switch v := i.(type) {
	case *bool:
		return v
	case bool:
		return &v
	default:
		return nil
	}
}

// StringMe takes an interface and returns a pointer to a string value
// If the underlying interface kind is not string or *string then nil is returned
func (*CommandLineInterface) StringMe(i interface{}) *string {
	if i == nil {
		return nil
	}
	switch v := i.(type) {
	case *string:
		return v
	case string:
		return &v
	default:
		return nil
	}
}

// IntMe takes an interface and returns a pointer to an int value
// If the underlying interface kind is not int, *int, int32 or *int32 then nil is returned
func (*CommandLineInterface) IntMe(i interface{}) *int {
	if i == nil {
		return nil
	}
	switch v := i.(type) {
	case *int:
		return v
	case int:
		return &v
	case *int32:
		val := int(*v)
		return &val
	case int32:
		val := int(v)
		return &val
	default:
		return nil
	}
}

// Int32Me takes an interface and returns a pointer to an int32 value
// If the underlying interface kind is not int, *int, int32 or *int32 then nil is returned
func (cl *CommandLineInterface) Int32Me(i interface{}) *int32 {
	val := cl.IntMe(i)
	if val == nil {
		return nil
	}
	val32 := int32(*val)
	return &val32
}

// RegexMe takes an interface and returns a pointer to a regex
// If the underlying interface kind is not regexp.Regexp or *regexp.Regexp then nil is returned
func (*CommandLineInterface) RegexMe(i interface{}) *regexp.Regexp {
	if i == nil {
		return nil
	}
	switch v := i.(type) {
	case *regexp.Regexp:
		return v
	case regexp.Regexp:
		return &v
	default:
		return nil
	}
}

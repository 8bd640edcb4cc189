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

// Package outputs provides types for implementing instance type output functions as well as prebuilt output functions.
package outputs

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	// VantageBaseURL is the instance comparison site the vantage output links to
	VantageBaseURL = "https://instances.vantage.sh"

	maxInstanceTypeNameLength = 32
)

var instanceTypeNamePattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9.-]+$`)

// OutputFn is the function contract for turning instance type names into output lines
type OutputFn func(instanceTypes []string) []string

// SimpleInstanceTypeOutput is an OutputFn which outputs a slice of instance type names, one per line
func SimpleInstanceTypeOutput(instanceTypes []string) []string {
	return append([]string{}, instanceTypes...)
}

// OneLineOutput is an output function which prints the instance type names on a single line separated by commas
func OneLineOutput(instanceTypes []string) []string {
	if len(instanceTypes) == 0 {
		return []string{}
	}
	return []string{strings.Join(instanceTypes, ",")}
}

// VantageURLOutput is an output function which returns a single instances.vantage.sh comparison link
// filtered to, and selecting, the given instance types. Names which could not be instance types are left out.
func VantageURLOutput(instanceTypes []string) []string {
	valid := ValidInstanceTypeNames(instanceTypes)
	if len(valid) == 0 {
		return []string{VantageBaseURL}
	}
	slices.Sort(valid)
	slices.Reverse(valid)
	params := []string{
		fmt.Sprintf("filter=%s", strings.Join(valid, "|")),
		fmt.Sprintf("selected=%s", strings.Join(valid, ",")),
		"compare_on=true",
	}
	return []string{fmt.Sprintf("%s/?%s", VantageBaseURL, strings.Join(params, "&"))}
}

// ValidInstanceTypeNames drops anything that does not look like an instance type name
func ValidInstanceTypeNames(instanceTypes []string) []string {
	return lo.Filter(instanceTypes, func(instanceType string, _ int) bool {
		return len(instanceType) <= maxInstanceTypeNameLength && instanceTypeNamePattern.MatchString(instanceType)
	})
}

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

package lister

import (
	"encoding/json"
	"regexp"
)

// Filters is used to narrow down the listed instance type names
type Filters struct {
	// Region is the AWS Region to list instance types from. nil uses the client's region.
	Region *string

	// AllowList is a regex of instance type names which are kept
	AllowList *regexp.Regexp

	// DenyList is a regex of instance type names which are dropped
	DenyList *regexp.Regexp

	// MaxResults is the maximum number of names returned
	MaxResults *int
}

// MarshalIndent is used to return a pretty-print json representation of the filters
func (f Filters) MarshalIndent(prefix, indent string) ([]byte, error) {
	type filtersRegexAlias Filters
	return json.MarshalIndent(&struct {
		AllowList *string
		DenyList  *string
		*filtersRegexAlias
	}{
		AllowList:         regexToString(f.AllowList),
		DenyList:          regexToString(f.DenyList),
		filtersRegexAlias: (*filtersRegexAlias)(&f),
	}, prefix, indent)
}

func regexToString(re *regexp.Regexp) *string {
	if re == nil {
		return nil
	}
	reStr := re.String()
	return &reStr
}

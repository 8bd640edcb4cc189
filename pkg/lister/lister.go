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

// Package lister provides filtering logic for Amazon EC2 Instance Type names
package lister

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"dario.cat/mergo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/chainguard-dev/clog"
	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-lister/pkg/awsapi"
	"github.com/aws/amazon-ec2-instance-lister/pkg/instancetypes"
	"github.com/aws/amazon-ec2-instance-lister/pkg/lister/outputs"
)

const (
	// DefaultCacheDir is where instance type caches are written when no directory is given
	DefaultCacheDir = "~/.ec2-instance-lister/"
	// DefaultMaxPages bounds DescribeInstanceTypes requests for a single listing
	DefaultMaxPages = 500
)

// DefaultListOptions fill in any ListOptions field left at its zero value
var DefaultListOptions = instancetypes.ListOptions{
	MaxPages: DefaultMaxPages,
}

// Lister is used to list and filter the instance types available in a region
type Lister struct {
	EC2                   awsapi.InstanceTypesInterface
	InstanceTypesProvider *instancetypes.Provider
	ListOptions           instancetypes.ListOptions
}

// New creates an instance of Lister provided an aws config. Caching is disabled.
func New(ctx context.Context, cfg aws.Config) (*Lister, error) {
	return NewWithCache(ctx, cfg, 0, "")
}

// NewWithCache creates an instance of Lister backed by an on-disk instance type cache.
// A ttl of 0 turns the cache off. An empty cacheDir uses DefaultCacheDir.
func NewWithCache(ctx context.Context, cfg aws.Config, ttl time.Duration, cacheDir string) (*Lister, error) {
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	expandedDir, err := homedir.Expand(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("unable to expand cache directory %s: %w", cacheDir, err)
	}
	ec2Client := ec2.NewFromConfig(cfg)
	return &Lister{
		EC2:                   ec2Client,
		InstanceTypesProvider: instancetypes.LoadFromOrNew(ctx, expandedDir, cfg.Region, ttl, ec2Client),
		ListOptions:           DefaultListOptions,
	}, nil
}

// WithListOptions sets the pagination options, keeping defaults for any field left unset.
// A MaxPages of 0 falls back to DefaultMaxPages; use instancetypes.List directly for an unbounded listing.
func (l *Lister) WithListOptions(opts instancetypes.ListOptions) (*Lister, error) {
	if err := mergo.Merge(&opts, DefaultListOptions); err != nil {
		return nil, fmt.Errorf("unable to apply list options: %w", err)
	}
	l.ListOptions = opts
	return l, nil
}

// Save persists the instance type cache, if one is enabled
func (l *Lister) Save() error {
	if l.InstanceTypesProvider == nil {
		return nil
	}
	return l.InstanceTypesProvider.Save()
}

// ListInstanceTypes returns the sorted, distinct instance type names of region.
// The configured region is served through the cache; other regions always go to the API.
func (l *Lister) ListInstanceTypes(ctx context.Context, region string) ([]string, error) {
	provider := l.InstanceTypesProvider
	if provider != nil && (region == "" || region == provider.Region) {
		provider.ListOptions = l.ListOptions
		return provider.Get(ctx)
	}
	return instancetypes.List(ctx, l.EC2, region, l.ListOptions)
}

// FilterWithOutput filters instance types and renders them with the given output function.
// The returned int is the number of names dropped by MaxResults.
func (l *Lister) FilterWithOutput(ctx context.Context, filters Filters, outputFn outputs.OutputFn) ([]string, int, error) {
	instanceTypes, err := l.rawFilter(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	instanceTypes, numOfItemsTruncated := truncateResults(filters.MaxResults, instanceTypes)
	if outputFn == nil {
		outputFn = outputs.SimpleInstanceTypeOutput
	}
	return outputFn(instanceTypes), numOfItemsTruncated, nil
}

// Filter returns the sorted instance type names of the filters' region which pass the allow and deny lists
func (l *Lister) Filter(ctx context.Context, filters Filters) ([]string, error) {
	instanceTypes, err := l.rawFilter(ctx, filters)
	if err != nil {
		return nil, err
	}
	instanceTypes, _ = truncateResults(filters.MaxResults, instanceTypes)
	return instanceTypes, nil
}

func (l *Lister) rawFilter(ctx context.Context, filters Filters) ([]string, error) {
	instanceTypes, err := l.ListInstanceTypes(ctx, aws.ToString(filters.Region))
	if err != nil {
		return nil, err
	}
	filtered := lo.Filter(instanceTypes, func(instanceType string, _ int) bool {
		return passesRegex(filters.AllowList, filters.DenyList, instanceType)
	})
	clog.FromContext(ctx).Debug("filtered instance types",
		"listed", len(instanceTypes),
		"matched", len(filtered),
	)
	return filtered, nil
}

func passesRegex(allowList *regexp.Regexp, denyList *regexp.Regexp, instanceType string) bool {
	if allowList != nil && !allowList.MatchString(instanceType) {
		return false
	}
	if denyList != nil && denyList.MatchString(instanceType) {
		return false
	}
	return true
}

func truncateResults(maxResults *int, instanceTypes []string) ([]string, int) {
	if maxResults == nil || *maxResults < 0 {
		return instanceTypes, 0
	}
	upperIndex := min(*maxResults, len(instanceTypes))
	return instanceTypes[:upperIndex], len(instanceTypes) - upperIndex
}

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

// Package instancetypes enumerates the EC2 instance type names offered in a region
package instancetypes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-lister/pkg/awsapi"
)

const (
	cacheFileName = "instance-types.json"
)

// Provider serves the instance type names of one region, optionally from a TTL cache
// which can be persisted to disk between runs
type Provider struct {
	Region         string
	DirectoryPath  string
	FullRefreshTTL time.Duration
	ListOptions    ListOptions
	ec2Client      awsapi.InstanceTypesInterface
	cache          *cache.Cache
}

// NewProvider creates a Provider with an empty cache.
// A FullRefreshTTL of 0 disables caching: every Get goes to the API and Save does nothing.
func NewProvider(directoryPath string, region string, ttl time.Duration, ec2Client awsapi.InstanceTypesInterface) *Provider {
	return &Provider{
		Region:         region,
		DirectoryPath:  directoryPath,
		FullRefreshTTL: ttl,
		ec2Client:      ec2Client,
		cache:          cache.New(ttl, ttl),
	}
}

// LoadFromOrNew loads a previously saved cache for the region from directoryPath,
// falling back to an empty Provider if there is nothing usable on disk.
// With a ttl of 0 the directory is never read or modified.
func LoadFromOrNew(ctx context.Context, directoryPath string, region string, ttl time.Duration, ec2Client awsapi.InstanceTypesInterface) *Provider {
	if ttl <= 0 {
		return NewProvider(directoryPath, region, ttl, ec2Client)
	}
	log := clog.FromContext(ctx).With("region", region)
	itemMap, err := loadFrom(filepath.Join(directoryPath, cacheFilename(region)))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("unable to load instance types cache, starting empty", "error", err)
		}
		return NewProvider(directoryPath, region, ttl, ec2Client)
	}
	log.Debug("loaded instance types cache", "entries", len(itemMap))
	return &Provider{
		Region:         region,
		DirectoryPath:  directoryPath,
		FullRefreshTTL: ttl,
		ec2Client:      ec2Client,
		cache:          cache.NewFrom(ttl, ttl, itemMap),
	}
}

func loadFrom(path string) (map[string]cache.Item, error) {
	cacheBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	itemMap := map[string]cache.Item{}
	if err := json.Unmarshal(cacheBytes, &itemMap); err != nil {
		return nil, fmt.Errorf("unable to parse instance types cache %s: %w", path, err)
	}
	return itemMap, nil
}

func cacheFilename(region string) string {
	return fmt.Sprintf("%s-%s", region, cacheFileName)
}

// Get returns the sorted, distinct instance type names of the Provider's region.
// Cached names are used while they are younger than FullRefreshTTL. A refresh only
// replaces the cache once every page has been read successfully.
func (p *Provider) Get(ctx context.Context) ([]string, error) {
	log := clog.FromContext(ctx).With("region", p.Region)
	if p.FullRefreshTTL > 0 {
		if cached := p.cache.Items(); len(cached) > 0 {
			log.Debug("using cached instance types", "entries", len(cached))
			return NewSet(lo.Keys(cached)...).Sorted(), nil
		}
	}

	instanceTypes, err := List(ctx, p.ec2Client, p.Region, p.ListOptions)
	if err != nil {
		return nil, err
	}

	if p.FullRefreshTTL > 0 {
		p.cache.Flush()
		for _, instanceType := range instanceTypes {
			p.cache.SetDefault(instanceType, true)
		}
	}
	return instanceTypes, nil
}

// Save writes the cached names to DirectoryPath so later runs can reuse them
func (p *Provider) Save() error {
	if p.FullRefreshTTL <= 0 || p.cache.ItemCount() == 0 {
		return nil
	}
	cacheBytes, err := json.Marshal(p.cache.Items())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.DirectoryPath, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.DirectoryPath, cacheFilename(p.Region)), cacheBytes, 0o644)
}

// Clear empties the in-memory cache and removes the region's cache file
func (p *Provider) Clear() error {
	p.cache.Flush()
	if err := os.Remove(filepath.Join(p.DirectoryPath, cacheFilename(p.Region))); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CacheCount returns the number of unexpired names held in the cache
func (p *Provider) CacheCount() int {
	return len(p.cache.Items())
}

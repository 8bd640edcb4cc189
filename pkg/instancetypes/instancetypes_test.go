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

package instancetypes_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/amazon-ec2-instance-lister/pkg/instancetypes"
	h "github.com/aws/amazon-ec2-instance-lister/pkg/test"
)

func TestProvider_NoCache(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	provider := instancetypes.NewProvider(t.TempDir(), "us-west-2", 0, ec2Mock)

	instanceTypes, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"c5.xlarge", "m5.large", "t2.micro"}, instanceTypes)
	h.Equals(t, 0, provider.CacheCount())

	_, err = provider.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, 4, ec2Mock.requests())
}

func TestProvider_CacheHit(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	provider := instancetypes.NewProvider(t.TempDir(), "us-west-2", time.Hour, ec2Mock)

	instanceTypes, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, 3, provider.CacheCount())
	h.Equals(t, 2, ec2Mock.requests())

	cached, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, instanceTypes, cached)
	h.Equals(t, 2, ec2Mock.requests())
}

func TestProvider_FailedRefreshKeepsCacheEmpty(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	ec2Mock.errs = map[string]error{"X": errors.New("throttled")}
	provider := instancetypes.NewProvider(t.TempDir(), "us-west-2", time.Hour, ec2Mock)

	instanceTypes, err := provider.Get(context.Background())
	h.Nok(t, err)
	h.Assert(t, instanceTypes == nil, "expected no partial result")
	h.Equals(t, 0, provider.CacheCount())
}

func TestProvider_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	provider := instancetypes.LoadFromOrNew(context.Background(), dir, "eu-west-1", time.Hour, ec2Mock)
	h.Equals(t, 0, provider.CacheCount())

	instanceTypes, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Ok(t, provider.Save())
	_, err = os.Stat(filepath.Join(dir, "eu-west-1-instance-types.json"))
	h.Ok(t, err)

	ec2Mock = &mockedEC2{}
	loaded := instancetypes.LoadFromOrNew(context.Background(), dir, "eu-west-1", time.Hour, ec2Mock)
	h.Equals(t, 5, loaded.CacheCount())
	cached, err := loaded.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, instanceTypes, cached)
	h.Equals(t, 0, ec2Mock.requests())

	// other regions keep their own file
	other := instancetypes.LoadFromOrNew(context.Background(), dir, "us-east-1", time.Hour, ec2Mock)
	h.Equals(t, 0, other.CacheCount())
}

func TestProvider_LoadCorruptCache(t *testing.T) {
	dir := t.TempDir()
	h.Ok(t, os.WriteFile(filepath.Join(dir, "us-east-1-instance-types.json"), []byte("{not json"), 0o644))
	provider := instancetypes.LoadFromOrNew(context.Background(), dir, "us-east-1", time.Hour, setupMock(t, "empty.json"))
	h.Equals(t, 0, provider.CacheCount())
}

func TestProvider_ZeroTTLLeavesCacheFile(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "us-west-2-instance-types.json")
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	provider := instancetypes.NewProvider(dir, "us-west-2", time.Hour, ec2Mock)
	_, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Ok(t, provider.Save())
	saved, err := os.ReadFile(cacheFile)
	h.Ok(t, err)

	disabled := instancetypes.LoadFromOrNew(context.Background(), dir, "us-west-2", 0, ec2Mock)
	h.Equals(t, 0, disabled.CacheCount())
	instanceTypes, err := disabled.Get(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"c5.xlarge", "m5.large", "t2.micro"}, instanceTypes)
	h.Ok(t, disabled.Save())

	afterRun, err := os.ReadFile(cacheFile)
	h.Ok(t, err)
	h.Equals(t, saved, afterRun)
}

func TestProvider_ZeroTTLDoesNotWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	disabled := instancetypes.LoadFromOrNew(context.Background(), dir, "us-west-2", 0, setupMock(t, "e2e_page1.json", "e2e_page2.json"))
	_, err := disabled.Get(context.Background())
	h.Ok(t, err)
	h.Ok(t, disabled.Save())
	_, err = os.Stat(dir)
	h.Assert(t, os.IsNotExist(err), "a disabled cache must not create %s, got %v", dir, err)
}

func TestProvider_Clear(t *testing.T) {
	dir := t.TempDir()
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	provider := instancetypes.NewProvider(dir, "us-west-2", time.Hour, ec2Mock)
	_, err := provider.Get(context.Background())
	h.Ok(t, err)
	h.Ok(t, provider.Save())
	h.Ok(t, provider.Clear())
	h.Equals(t, 0, provider.CacheCount())
	// clearing twice is fine
	h.Ok(t, provider.Clear())
}

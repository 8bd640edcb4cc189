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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/aws/amazon-ec2-instance-lister/pkg/instancetypes"
	h "github.com/aws/amazon-ec2-instance-lister/pkg/test"
)

const (
	describeInstanceTypes = "DescribeInstanceTypes"
	mockFilesPath         = "../../test/static"
)

// Mocking helpers

type mockedEC2 struct {
	// pages are keyed by the NextToken that requests them, "" being the first page
	pages map[string]ec2.DescribeInstanceTypesOutput
	// errs are returned instead of a page for the matching token
	errs map[string]error
	// endless makes every response carry a fresh token
	endless bool

	tokens     []string
	regions    []string
	maxResults []int32
}

func (m *mockedEC2) DescribeInstanceTypes(_ context.Context, input *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	token := aws.ToString(input.NextToken)
	m.tokens = append(m.tokens, token)
	m.maxResults = append(m.maxResults, aws.ToInt32(input.MaxResults))
	opts := ec2.Options{Region: "client-default"}
	for _, fn := range optFns {
		fn(&opts)
	}
	m.regions = append(m.regions, opts.Region)

	if err, ok := m.errs[token]; ok {
		return nil, err
	}
	if m.endless {
		return &ec2.DescribeInstanceTypesOutput{
			InstanceTypes: []ec2types.InstanceTypeInfo{{InstanceType: ec2types.InstanceTypeT3Micro}},
			NextToken:     aws.String(fmt.Sprintf("token-%d", len(m.tokens))),
		}, nil
	}
	page, ok := m.pages[token]
	if !ok {
		return nil, fmt.Errorf("mock has no page for token %q", token)
	}
	return &page, nil
}

func (m *mockedEC2) requests() int {
	return len(m.tokens)
}

// setupMock chains the given mock files into pages, keying each by the previous file's NextToken
func setupMock(t *testing.T, files ...string) *mockedEC2 {
	t.Helper()
	m := &mockedEC2{pages: map[string]ec2.DescribeInstanceTypesOutput{}}
	token := ""
	for _, file := range files {
		mockFilename := fmt.Sprintf("%s/%s/%s", mockFilesPath, describeInstanceTypes, file)
		mockFile, err := os.ReadFile(mockFilename)
		h.Assert(t, err == nil, "Error reading mock file "+mockFilename)
		dito := ec2.DescribeInstanceTypesOutput{}
		err = json.Unmarshal(mockFile, &dito)
		h.Assert(t, err == nil, "Error parsing mock json file contents "+mockFilename)
		m.pages[token] = dito
		token = aws.ToString(dito.NextToken)
	}
	return m
}

// Tests

func TestList_TwoPages(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-west-2", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, []string{"c5.xlarge", "m5.large", "t2.micro"}, instanceTypes)
	h.Equals(t, []string{"", "X"}, ec2Mock.tokens)
	h.Equals(t, []string{"us-west-2", "us-west-2"}, ec2Mock.regions)
}

func TestList_ThreePages(t *testing.T) {
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "eu-west-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, 3, ec2Mock.requests())
	h.Equals(t, "", ec2Mock.tokens[0])
	h.Equals(t, "AAEAAZmFrZS10b2tlbi1wYWdlLTI=", ec2Mock.tokens[1])
	h.Equals(t, "AAEAAZmFrZS10b2tlbi1wYWdlLTM=", ec2Mock.tokens[2])
	// t3.micro shows up on two pages
	h.Equals(t, []string{"a1.2xlarge", "a1.large", "r5.2xlarge", "t3.micro", "t3.small"}, instanceTypes)
}

func TestList_Empty(t *testing.T) {
	ec2Mock := setupMock(t, "empty.json")
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, 0, len(instanceTypes))
	h.Equals(t, 1, ec2Mock.requests())
}

func TestList_EmptyTokenEndsListing(t *testing.T) {
	ec2Mock := setupMock(t, "empty_token.json")
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, []string{"g4dn.xlarge"}, instanceTypes)
	h.Equals(t, 1, ec2Mock.requests())
}

func TestList_Idempotent(t *testing.T) {
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	first, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	second, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, first, second)
	h.Equals(t, 6, ec2Mock.requests())
}

func TestList_ErrorMidPagination(t *testing.T) {
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	apiErr := &smithy.GenericAPIError{Code: "RequestLimitExceeded", Message: "Request limit exceeded."}
	ec2Mock.errs = map[string]error{"AAEAAZmFrZS10b2tlbi1wYWdlLTM=": apiErr}
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Nok(t, err)
	h.Assert(t, instanceTypes == nil, "expected no partial result, got %v", instanceTypes)
	h.Equals(t, 3, ec2Mock.requests())

	var target smithy.APIError
	h.Assert(t, errors.As(err, &target), "expected the API error to be wrapped, got %v", err)
	h.Equals(t, "RequestLimitExceeded", target.ErrorCode())
}

func TestList_ErrorOnFirstPage(t *testing.T) {
	ec2Mock := &mockedEC2{errs: map[string]error{"": errors.New("no credentials")}}
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Nok(t, err)
	h.Assert(t, instanceTypes == nil, "expected no result")
	h.Equals(t, 1, ec2Mock.requests())
}

func TestList_PageLimitExceeded(t *testing.T) {
	ec2Mock := &mockedEC2{endless: true}
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{MaxPages: 5})
	h.Nok(t, err)
	h.Assert(t, errors.Is(err, instancetypes.ErrPageLimitExceeded), "expected ErrPageLimitExceeded, got %v", err)
	h.Assert(t, instanceTypes == nil, "expected no partial result")
	h.Equals(t, 5, ec2Mock.requests())
}

func TestList_PageLimitNotReached(t *testing.T) {
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	instanceTypes, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{MaxPages: 3})
	h.Ok(t, err)
	h.Equals(t, 5, len(instanceTypes))
}

func TestList_PageSize(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	_, err := instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{PageSize: 20})
	h.Ok(t, err)
	h.Equals(t, []int32{20, 20}, ec2Mock.maxResults)

	ec2Mock = setupMock(t, "e2e_page1.json", "e2e_page2.json")
	_, err = instancetypes.List(context.Background(), ec2Mock, "us-east-1", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, []int32{0, 0}, ec2Mock.maxResults)
}

func TestList_EmptyRegionUsesClientRegion(t *testing.T) {
	ec2Mock := setupMock(t, "empty.json")
	_, err := instancetypes.List(context.Background(), ec2Mock, "", instancetypes.ListOptions{})
	h.Ok(t, err)
	h.Equals(t, []string{"client-default"}, ec2Mock.regions)
}

func TestPager_NextPage(t *testing.T) {
	ec2Mock := setupMock(t, "e2e_page1.json", "e2e_page2.json")
	pager := instancetypes.NewPager(ec2Mock, "us-west-2", instancetypes.ListOptions{})
	h.Assert(t, pager.HasMorePages(), "a new pager should have pages")

	names, err := pager.NextPage(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"m5.large", "t2.micro"}, names)
	h.Assert(t, pager.HasMorePages(), "expected a second page")

	names, err = pager.NextPage(context.Background())
	h.Ok(t, err)
	h.Equals(t, []string{"t2.micro", "c5.xlarge"}, names)
	h.Assert(t, !pager.HasMorePages(), "expected the pager to be exhausted")
	h.Equals(t, 2, pager.Pages())

	_, err = pager.NextPage(context.Background())
	h.Assert(t, errors.Is(err, instancetypes.ErrNoMorePages), "expected ErrNoMorePages, got %v", err)
	h.Equals(t, 2, ec2Mock.requests())
}

func TestPager_AllEarlyBreak(t *testing.T) {
	ec2Mock := setupMock(t, "three_page1.json", "three_page2.json", "three_page3.json")
	pager := instancetypes.NewPager(ec2Mock, "us-east-1", instancetypes.ListOptions{})
	var names []string
	for name, err := range pager.All(context.Background()) {
		h.Ok(t, err)
		names = append(names, name)
		if len(names) == 3 {
			break
		}
	}
	h.Equals(t, []string{"t3.micro", "t3.small", "a1.large"}, names)
	h.Equals(t, 2, ec2Mock.requests())
	h.Assert(t, pager.HasMorePages(), "the last page was never requested")
}

func TestSet(t *testing.T) {
	set := instancetypes.NewSet("t3.micro", "m5.large", "t3.micro")
	h.Equals(t, 2, set.Len())
	h.Assert(t, set.Contains("m5.large"), "expected m5.large in set")
	h.Assert(t, !set.Contains("c5.large"), "did not expect c5.large in set")
	set.Add("c5.large")
	h.Equals(t, []string{"c5.large", "m5.large", "t3.micro"}, set.Sorted())
	h.Equals(t, []string{}, instancetypes.NewSet().Sorted())
}

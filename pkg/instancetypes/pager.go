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
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"

	"github.com/aws/amazon-ec2-instance-lister/pkg/awsapi"
)

var (
	// ErrPageLimitExceeded is returned when the API keeps handing out page tokens past ListOptions.MaxPages
	ErrPageLimitExceeded = errors.New("page limit exceeded while describing instance types")
	// ErrNoMorePages is returned by NextPage once the last page has been consumed
	ErrNoMorePages = errors.New("no more pages available")
)

// ListOptions tunes how instance type pages are requested
type ListOptions struct {
	// MaxPages caps the number of DescribeInstanceTypes requests. 0 means unbounded.
	MaxPages int
	// PageSize is sent as MaxResults on each request. 0 leaves it to the API default.
	PageSize int32
}

// Pager pulls instance type names from DescribeInstanceTypes one page at a time.
// Page N+1 is only requested after page N has been returned, since its token comes from page N.
type Pager struct {
	client    awsapi.InstanceTypesInterface
	region    string
	opts      ListOptions
	nextToken *string
	pages     int
	done      bool
}

// NewPager creates a Pager for the given region. An empty region uses the client's configured region.
func NewPager(client awsapi.InstanceTypesInterface, region string, opts ListOptions) *Pager {
	return &Pager{
		client: client,
		region: region,
		opts:   opts,
	}
}

// HasMorePages reports whether another call to NextPage will issue a request
func (p *Pager) HasMorePages() bool {
	return !p.done
}

// Pages returns the number of requests issued so far
func (p *Pager) Pages() int {
	return p.pages
}

// NextPage requests the next page and returns the instance type names it contains.
// Names are returned in the order the API sent them; no deduplication happens here.
func (p *Pager) NextPage(ctx context.Context) ([]string, error) {
	if p.done {
		return nil, ErrNoMorePages
	}
	if p.opts.MaxPages > 0 && p.pages >= p.opts.MaxPages {
		p.done = true
		return nil, fmt.Errorf("%w: stopped after %d pages in region %s", ErrPageLimitExceeded, p.pages, p.region)
	}

	input := &ec2.DescribeInstanceTypesInput{
		NextToken: p.nextToken,
	}
	if p.opts.PageSize > 0 {
		input.MaxResults = aws.Int32(p.opts.PageSize)
	}

	p.pages++
	output, err := p.client.DescribeInstanceTypes(ctx, input, awsapi.WithRegion(p.region))
	if err != nil {
		p.done = true
		return nil, fmt.Errorf("unable to describe instance types (page %d): %w", p.pages, err)
	}

	names := lo.Map(output.InstanceTypes, func(info ec2types.InstanceTypeInfo, _ int) string {
		return string(info.InstanceType)
	})

	// an absent or empty token is the only end-of-results signal
	if aws.ToString(output.NextToken) == "" {
		p.nextToken = nil
		p.done = true
	} else {
		p.nextToken = output.NextToken
	}

	clog.FromContext(ctx).Debug("described instance types page",
		"region", p.region,
		"page", p.pages,
		"count", len(names),
		"has_next", !p.done,
	)
	return names, nil
}

// All returns a lazy sequence of every instance type name across all remaining pages.
// An error ends the sequence after being yielded once.
func (p *Pager) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for p.HasMorePages() {
			names, err := p.NextPage(ctx)
			if err != nil {
				yield("", err)
				return
			}
			for _, name := range names {
				if !yield(name, nil) {
					return
				}
			}
		}
	}
}

// List returns the sorted, distinct instance type names available in region.
// Any API error aborts the listing and nothing gathered so far is returned.
func List(ctx context.Context, client awsapi.InstanceTypesInterface, region string, opts ListOptions) ([]string, error) {
	pager := NewPager(client, region, opts)
	instanceTypes := NewSet()
	for name, err := range pager.All(ctx) {
		if err != nil {
			return nil, err
		}
		instanceTypes.Add(name)
	}
	clog.FromContext(ctx).Debug("listed instance types",
		"region", region,
		"pages", pager.Pages(),
		"distinct", instanceTypes.Len(),
	)
	return instanceTypes.Sorted(), nil
}

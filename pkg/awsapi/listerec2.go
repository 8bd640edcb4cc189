package awsapi

import (
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// InstanceTypesInterface is the slice of the EC2 API the lister depends on
type InstanceTypesInterface interface {
	ec2.DescribeInstanceTypesAPIClient
}

// WithRegion returns an ec2 client option which routes a single call to the given region.
// An empty region leaves the client's configured region untouched.
func WithRegion(region string) func(*ec2.Options) {
	return func(o *ec2.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

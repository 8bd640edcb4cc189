package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/aws/amazon-ec2-instance-lister/pkg/lister"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

func main() {
	// Initialize a context for the application
	ctx := context.Background()

	// Load an AWS config by looking at shared credentials or environment variables
	// https://aws.github.io/aws-sdk-go-v2/docs/configuring-sdk
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		fmt.Printf("Oh no, AWS session credentials cannot be found: %v", err)
		return
	}

	// Instantiate a new lister with the AWS config, caching the instance types on disk for a day
	instanceLister, err := lister.NewWithCache(ctx, cfg, 24*time.Hour, lister.DefaultCacheDir)
	if err != nil {
		fmt.Printf("Oh no, the lister could not be created: %v", err)
		return
	}

	// Create a Filters struct to narrow down the instance types returned.
	// Leaving Region empty lists the region of the AWS config.
	filters := lister.Filters{
		AllowList:  regexp.MustCompile(`^(c|m)[5-7]\.`),
		MaxResults: aws.Int(20),
	}

	// Pass the Filters struct to the Filter function of your lister instance
	instanceTypesSlice, err := instanceLister.Filter(ctx, filters)
	if err != nil {
		fmt.Printf("Oh no, there was an error :( %v", err)
		return
	}
	// Persist the cache so the next run skips the API calls
	if err := instanceLister.Save(); err != nil {
		fmt.Printf("Unable to save the cache: %v", err)
	}
	// Print the returned instance types slice
	fmt.Println(instanceTypesSlice)
}

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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	"github.com/chainguard-dev/clog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lmittmann/tint"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	commandline "github.com/aws/amazon-ec2-instance-lister/pkg/cli"
	"github.com/aws/amazon-ec2-instance-lister/pkg/instancetypes"
	"github.com/aws/amazon-ec2-instance-lister/pkg/lister"
	"github.com/aws/amazon-ec2-instance-lister/pkg/lister/outputs"
)

const (
	binName             = "ec2-instance-lister"
	awsRegionEnvVar     = "AWS_REGION"
	defaultRegionEnvVar = "AWS_DEFAULT_REGION"
	logLevelEnvVar      = "LOG_LEVEL"
	defaultProfile      = "default"
	awsConfigFile       = "~/.aws/config"

	// output types
	simpleOutput      = "simple"
	oneLine           = "one-line"
	vantageURLOutput  = "vantage-url"
	interactiveOutput = "interactive"

	// minimum and maximum MaxResults accepted by DescribeInstanceTypes
	minPageSize = 5
	maxPageSize = 100
)

// Filter Flag Constants
const (
	allowList = "allow-list"
	denyList  = "deny-list"
)

// Configuration Flag Constants
const (
	maxResults = "max-results"
	maxPages   = "max-pages"
	pageSize   = "page-size"
	cacheDir   = "cache-dir"
	cacheTTL   = "cache-ttl"
	profile    = "profile"
	help       = "help"
	verbose    = "verbose"
	version    = "version"
	region     = "region"
	output     = "output"
)

var (
	// versionID is overridden at compilation with the version based on the git tag
	versionID = "dev"

	maxPagesDescription = fmt.Sprintf("Maximum number of DescribeInstanceTypes requests before giving up (0 uses the default of %d)", lister.DefaultMaxPages)
)

func main() {
	colorProfile := termenv.NewOutput(os.Stderr).ColorProfile()
	lipgloss.SetColorProfile(colorProfile)

	var logLevel slog.LevelVar
	if level := os.Getenv(logLevelEnvVar); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid %s: %v\n", logLevelEnvVar, err)
			os.Exit(1)
		}
		logLevel.Set(parsed)
	}
	handler := newLogHandler(os.Stderr, &logLevel, colorProfile == termenv.Ascii)
	slog.SetDefault(slog.New(handler))
	logger := clog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = clog.WithLogger(ctx, logger)

	shortUsage := "A tool to list the EC2 Instance Types offered in a region"
	longUsage := binName + ` is a CLI tool to list every EC2 instance type available in an AWS region.
Instance type names are printed in ascending order, one per line.
Full docs can be found at github.com/aws/amazon-` + binName
	examples := fmt.Sprintf(`%s us-west-2
%s --region eu-west-1 --allow-list '^(c|m)5\.'
%s --profile dev --output vantage-url --max-results 10`, binName, binName, binName)

	runFunc := func(cmd *cobra.Command, args []string) {}
	cli := commandline.New(binName+" [region]", shortUsage, longUsage, examples, runFunc)
	cli.MaximumArgs(1)

	cliOutputTypes := []string{
		simpleOutput,
		oneLine,
		vantageURLOutput,
		interactiveOutput,
	}

	// Registers flags with specific input types from the cli pkg
	// Filter Flags - These will be grouped at the top of the help flags

	cli.RegexFlag(allowList, nil, nil, "List of allowed instance types to select from w/ regex syntax (Example: m[3-5]\\.*)")
	cli.RegexFlag(denyList, nil, nil, "List of instance types which should be excluded w/ regex syntax (Example: m[1-2]\\.*)")

	// Configuration Flags - These will be grouped at the bottom of the help flags

	cli.ConfigIntFlag(maxResults, nil, nil, "The maximum number of instance types that match your criteria to return")
	cli.ConfigIntFlag(maxPages, nil, cli.IntMe(lister.DefaultMaxPages), maxPagesDescription)
	cli.ConfigIntRangeFlag(pageSize, nil, nil, fmt.Sprintf("Instance types requested per page [%d-%d] (defaults to the API's page size)", minPageSize, maxPageSize), minPageSize, maxPageSize)
	cli.ConfigStringFlag(cacheDir, nil, cli.StringMe(lister.DefaultCacheDir), "Directory to save the instance type cache to", nil)
	cli.ConfigIntFlag(cacheTTL, nil, cli.IntMe(0), "Cache TTL in hours for instance types, 0 disables the cache")
	cli.ConfigStringFlag(profile, nil, nil, "AWS CLI profile to use for credentials and config", nil)
	cli.ConfigStringFlag(region, cli.StringMe("r"), nil, "AWS Region to use for API requests (NOTE: if not passed in, uses AWS SDK default precedence)", nil)
	cli.ConfigStringOptionsFlag(output, cli.StringMe("o"), cli.StringMe(simpleOutput), fmt.Sprintf("Specify the output format (%s)", strings.Join(cliOutputTypes, ", ")), cliOutputTypes)
	cli.ConfigBoolFlag(verbose, cli.StringMe("v"), nil, "Verbose - will print out debug logs and the filters used")
	cli.ConfigBoolFlag(help, cli.StringMe("h"), nil, "Help")
	cli.ConfigBoolFlag(version, nil, nil, "Prints CLI version")

	// Parses the user input with the registered flags and runs type specific validation on the user input
	flags, err := cli.ParseAndValidateFlags()
	if err != nil {
		logger.Error("There was an error while parsing the commandline flags", "error", err)
		os.Exit(1)
	}
	if flags[help] != nil {
		os.Exit(0)
	}
	if flags[version] != nil {
		fmt.Printf("%s\n", versionID)
		os.Exit(0)
	}
	if flags[verbose] != nil {
		logLevel.Set(slog.LevelDebug)
	}

	cfg, err := resolveAWSConfig(ctx, cli.Args(), cli.StringMe(flags[region]), cli.StringMe(flags[profile]))
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	ctx = clog.WithLogger(ctx, clog.New(handler.WithAttrs([]slog.Attr{slog.String("region", cfg.Region)})))

	cacheTTLHours := cli.IntMe(flags[cacheTTL])
	instanceLister, err := lister.NewWithCache(ctx, cfg, time.Duration(*cacheTTLHours)*time.Hour, *cli.StringMe(flags[cacheDir]))
	if err != nil {
		logger.Error("Unable to create the instance type lister", "error", err)
		os.Exit(1)
	}
	if _, err := instanceLister.WithListOptions(instancetypes.ListOptions{
		MaxPages: *cli.IntMe(flags[maxPages]),
		PageSize: derefInt32(cli.Int32Me(flags[pageSize])),
	}); err != nil {
		logger.Error("Unable to apply pagination options", "error", err)
		os.Exit(1)
	}

	filters := lister.Filters{
		Region:     aws.String(cfg.Region),
		AllowList:  cli.RegexMe(flags[allowList]),
		DenyList:   cli.RegexMe(flags[denyList]),
		MaxResults: cli.IntMe(flags[maxResults]),
	}
	if filtersJSON, err := filters.MarshalIndent("", "    "); err == nil {
		clog.FromContext(ctx).Debug("Filters: " + string(filtersJSON))
	}

	outputFlag := cli.StringMe(flags[output])
	instanceTypes, itemsTruncated, err := instanceLister.FilterWithOutput(ctx, filters, getOutputFn(outputFlag))
	if err != nil {
		logError(ctx, "An error occurred when listing instance types", err)
		os.Exit(1)
	}
	if err := instanceLister.Save(); err != nil {
		clog.FromContext(ctx).Warn("Unable to save the instance type cache", "error", err)
	}

	if outputFlag != nil && *outputFlag == interactiveOutput {
		instanceTypes, err = runInteractive(instanceTypes)
		if err != nil {
			logger.Error("An error occurred while running the interactive output", "error", err)
			os.Exit(1)
		}
	} else if len(instanceTypes) == 0 {
		clog.FromContext(ctx).Info("No instance types were found")
	}

	for _, instanceType := range instanceTypes {
		fmt.Println(instanceType)
	}
	if itemsTruncated > 0 {
		clog.FromContext(ctx).Warn(fmt.Sprintf("%d entries were truncated, increase --%s to see more", itemsTruncated, maxResults))
	}
}

func newLogHandler(w io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// logError reports err, pulling the service error code out of AWS API failures
func logError(ctx context.Context, msg string, err error) {
	log := clog.FromContext(ctx)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		log.Error(msg, "code", apiErr.ErrorCode(), "message", apiErr.ErrorMessage())
		return
	}
	if errors.Is(err, instancetypes.ErrPageLimitExceeded) {
		log.Error(msg, "error", err, "hint", fmt.Sprintf("increase --%s", maxPages))
		return
	}
	log.Error(msg, "error", err)
}

func getOutputFn(outputFlag *string) outputs.OutputFn {
	if outputFlag != nil {
		switch *outputFlag {
		case oneLine:
			return outputs.OneLineOutput
		case vantageURLOutput:
			return outputs.VantageURLOutput
		}
	}
	return outputs.SimpleInstanceTypeOutput
}

// runInteractive shows the instance types in a searchable table and returns the ones picked.
// The table is drawn on stderr so stdout only ever carries results.
func runInteractive(instanceTypes []string) ([]string, error) {
	model, err := tea.NewProgram(outputs.NewBubbleTeaModel(instanceTypes), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return nil, err
	}
	finalModel, ok := model.(outputs.BubbleTeaModel)
	if !ok {
		return nil, fmt.Errorf("unexpected interactive model %T", model)
	}
	return finalModel.Selected(), nil
}

// resolveAWSConfig loads the AWS config for the requested profile and settles the region in this order:
// positional argument, --region, AWS_REGION, the profile's region, the default profile's region
// and finally AWS_DEFAULT_REGION.
func resolveAWSConfig(ctx context.Context, args []string, regionName *string, profileName *string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if len(args) > 0 && args[0] != "" {
		opts = append(opts, config.WithRegion(args[0]))
	} else if regionName != nil && *regionName != "" {
		opts = append(opts, config.WithRegion(*regionName))
	}
	if profileName != nil {
		opts = append(opts, config.WithSharedConfigProfile(*profileName))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	if cfg.Region != "" {
		return cfg, nil
	}
	if profileName != nil && *profileName != defaultProfile {
		defaultCfg, err := config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(defaultProfile))
		if err == nil && defaultCfg.Region != "" {
			cfg.Region = defaultCfg.Region
			return cfg, nil
		}
	}
	if defaultRegion, ok := os.LookupEnv(defaultRegionEnvVar); ok && defaultRegion != "" {
		cfg.Region = defaultRegion
		return cfg, nil
	}

	errorMsg := "Unable to find a region in the usual places: \n"
	errorMsg = errorMsg + "\t - region argument\n"
	errorMsg = errorMsg + "\t - --region flag\n"
	errorMsg = errorMsg + fmt.Sprintf("\t - %s environment variable\n", awsRegionEnvVar)
	if profileName != nil {
		errorMsg = errorMsg + fmt.Sprintf("\t - profile region in %s\n", awsConfigFile)
	}
	errorMsg = errorMsg + fmt.Sprintf("\t - default profile region in %s\n", awsConfigFile)
	errorMsg = errorMsg + fmt.Sprintf("\t - %s environment variable\n", defaultRegionEnvVar)
	return aws.Config{}, errors.New(errorMsg)
}

func derefInt32(i *int32) int32 {
	if i == nil {
		return 0
	}
	return *i
}

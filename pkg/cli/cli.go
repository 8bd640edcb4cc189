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

// Package cli provides functions to build the lister command line interface
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

const usageTemplate = `Usage:
  {{.UseLine}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

Filter Flags:
{{.LocalNonPersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailablePersistentFlags}}

Global Flags:
{{.PersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`

type validator = func(val interface{}) error

// runFunc is the cobra run function used when flags have been parsed
type runFunc = func(cmd *cobra.Command, args []string)

// CommandLineInterface is a type to group CLI funcs and state
type CommandLineInterface struct {
	rootCmd     *cobra.Command
	Flags       map[string]interface{}
	nilDefaults map[string]bool
	validators  map[string]validator
	args        []string
}

// New creates an instance of CommandLineInterface
func New(binaryName string, shortUsage string, longUsage, examples string, run runFunc) CommandLineInterface {
	cl := CommandLineInterface{
		Flags:       map[string]interface{}{},
		nilDefaults: map[string]bool{},
		validators:  map[string]validator{},
	}
	cl.rootCmd = &cobra.Command{
		Use:     binaryName,
		Short:   shortUsage,
		Long:    longUsage,
		Example: examples,
		Args:    cobra.ArbitraryArgs,
		Run:     run,
	}
	cl.rootCmd.SetUsageTemplate(usageTemplate)
	return cl
}

// MaximumArgs limits the number of positional arguments accepted
func (cl *CommandLineInterface) MaximumArgs(n int) {
	cl.rootCmd.Args = cobra.MaximumNArgs(n)
}

// ParseAndValidateFlags will parse flags registered in this instance of CLI from os.Args
// and then perform validation
func (cl *CommandLineInterface) ParseAndValidateFlags() (map[string]interface{}, error) {
	flags, err := cl.ParseFlags()
	if err != nil {
		return flags, err
	}
	if err := cl.ValidateFlags(); err != nil {
		return flags, err
	}
	return flags, nil
}

// ParseFlags will parse flags registered in this instance of CLI from os.Args
func (cl *CommandLineInterface) ParseFlags() (map[string]interface{}, error) {
	run := cl.rootCmd.Run
	cl.rootCmd.Run = func(cmd *cobra.Command, args []string) {
		cl.args = args
		if run != nil {
			run(cmd, args)
		}
	}
	defer func() { cl.rootCmd.Run = run }()

	cl.rootCmd.SetArgs(os.Args[1:])
	if err := cl.rootCmd.Execute(); err != nil {
		return nil, err
	}
	cl.setUntouchedFlagValuesToNil()
	return cl.Flags, nil
}

// ValidateFlags iterates through any registered validators and executes them.
// Every failure is reported, not only the first.
func (cl *CommandLineInterface) ValidateFlags() error {
	flagNames := lo.Keys(cl.validators)
	slices.Sort(flagNames)
	var errs error
	for _, flagName := range flagNames {
		if fn := cl.validators[flagName]; fn != nil {
			errs = multierr.Append(errs, fn(cl.Flags[flagName]))
		}
	}
	return errs
}

// Args returns the positional arguments left after flag parsing
func (cl *CommandLineInterface) Args() []string {
	return cl.args
}

// Usage returns the rendered help text of the command
func (cl *CommandLineInterface) Usage() string {
	return cl.rootCmd.UsageString()
}

func (cl *CommandLineInterface) setUntouchedFlagValuesToNil() {
	for flagName := range cl.Flags {
		if !cl.nilDefaults[flagName] {
			continue
		}
		flag := cl.lookup(flagName)
		if flag == nil || !flag.Changed {
			cl.Flags[flagName] = nil
		}
	}
}

func (cl *CommandLineInterface) lookup(flagName string) *pflag.Flag {
	if flag := cl.rootCmd.Flags().Lookup(flagName); flag != nil {
		return flag
	}
	return cl.rootCmd.PersistentFlags().Lookup(flagName)
}

func invalidInput(flagName string, format string, v ...interface{}) error {
	return fmt.Errorf("Invalid input for --%s. %s", flagName, fmt.Sprintf(format, v...))
}

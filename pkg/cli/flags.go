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

package cli

import (
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// IntFlag creates and registers a flag accepting a non-negative Integer
func (cl *CommandLineInterface) IntFlag(name string, shorthand *string, defaultValue *int, description string) {
	cl.IntFlagOnFlagSet(cl.rootCmd.Flags(), name, shorthand, defaultValue, description)
}

// StringFlag creates and registers a flag accepting a String and a validator function.
// The validator function is provided so that more complex flags can be created from a string input.
func (cl *CommandLineInterface) StringFlag(name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	cl.StringFlagOnFlagSet(cl.rootCmd.Flags(), name, shorthand, defaultValue, description, validationFn)
}

// StringOptionsFlag creates and registers a flag accepting a string and valid options for use in validation.
func (cl *CommandLineInterface) StringOptionsFlag(name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	cl.StringOptionsFlagOnFlagSet(cl.rootCmd.Flags(), name, shorthand, defaultValue, description, validOpts)
}

// RegexFlag creates and registers a flag accepting a string and validates that it is a valid regex.
// After validation the flag holds a *regexp.Regexp.
func (cl *CommandLineInterface) RegexFlag(name string, shorthand *string, defaultValue *string, description string) {
	cl.RegexFlagOnFlagSet(cl.rootCmd.Flags(), name, shorthand, defaultValue, description)
}

// BoolFlag creates and registers a flag accepting a boolean
func (cl *CommandLineInterface) BoolFlag(name string, shorthand *string, defaultValue *bool, description string) {
	cl.BoolFlagOnFlagSet(cl.rootCmd.Flags(), name, shorthand, defaultValue, description)
}

// ConfigStringFlag creates and registers a flag accepting a String for configuration purposes.
// Config flags will be grouped at the bottom in the output of --help
func (cl *CommandLineInterface) ConfigStringFlag(name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	cl.StringFlagOnFlagSet(cl.rootCmd.PersistentFlags(), name, shorthand, defaultValue, description, validationFn)
}

// ConfigStringOptionsFlag creates and registers a flag accepting a string and valid options for configuration purposes.
// Config flags will be grouped at the bottom in the output of --help
func (cl *CommandLineInterface) ConfigStringOptionsFlag(name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	cl.StringOptionsFlagOnFlagSet(cl.rootCmd.PersistentFlags(), name, shorthand, defaultValue, description, validOpts)
}

// ConfigIntFlag creates and registers a flag accepting a non-negative Integer for configuration purposes.
// Config flags will be grouped at the bottom in the output of --help
func (cl *CommandLineInterface) ConfigIntFlag(name string, shorthand *string, defaultValue *int, description string) {
	cl.IntFlagOnFlagSet(cl.rootCmd.PersistentFlags(), name, shorthand, defaultValue, description)
}

// ConfigIntRangeFlag creates and registers a flag accepting an Integer between lower and upper inclusive.
// 0 is always accepted and means "not set".
func (cl *CommandLineInterface) ConfigIntRangeFlag(name string, shorthand *string, defaultValue *int, description string, lower int, upper int) {
	cl.IntFlagOnFlagSet(cl.rootCmd.PersistentFlags(), name, shorthand, defaultValue, description)
	cl.validators[name] = func(val interface{}) error {
		intVal := cl.IntMe(val)
		if intVal == nil || *intVal == 0 {
			return nil
		}
		if *intVal < lower || *intVal > upper {
			return invalidInput(name, "Value must be between %d and %d", lower, upper)
		}
		return nil
	}
}

// ConfigBoolFlag creates and registers a flag accepting a boolean for configuration purposes.
// Config flags will be grouped at the bottom in the output of --help
func (cl *CommandLineInterface) ConfigBoolFlag(name string, shorthand *string, defaultValue *bool, description string) {
	cl.BoolFlagOnFlagSet(cl.rootCmd.PersistentFlags(), name, shorthand, defaultValue, description)
}

// BoolFlagOnFlagSet creates and registers a flag accepting a boolean for configuration purposes.
func (cl *CommandLineInterface) BoolFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *bool, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.BoolMe(false)
	}
	if shorthand != nil {
		cl.Flags[name] = flagSet.BoolP(name, string(*shorthand), *defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.Bool(name, *defaultValue, description)
}

// IntFlagOnFlagSet creates and registers a flag accepting a non-negative Integer
func (cl *CommandLineInterface) IntFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *int, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.IntMe(0)
	}
	if shorthand != nil {
		cl.Flags[name] = flagSet.IntP(name, string(*shorthand), *defaultValue, description)
	} else {
		cl.Flags[name] = flagSet.Int(name, *defaultValue, description)
	}
	cl.validators[name] = func(val interface{}) error {
		intVal := cl.IntMe(val)
		if intVal != nil && *intVal < 0 {
			return invalidInput(name, "Value must be a non-negative integer")
		}
		return nil
	}
}

// StringFlagOnFlagSet creates and registers a flag accepting a String and a validator function.
// The validator function is provided so that more complex flags can be created from a string input.
func (cl *CommandLineInterface) StringFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.StringMe("")
	}
	if shorthand != nil {
		cl.Flags[name] = flagSet.StringP(name, string(*shorthand), *defaultValue, description)
		cl.validators[name] = validationFn
		return
	}
	cl.Flags[name] = flagSet.String(name, *defaultValue, description)
	cl.validators[name] = validationFn
}

// StringOptionsFlagOnFlagSet creates and registers a flag accepting a string and valid options for use in validation.
func (cl *CommandLineInterface) StringOptionsFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	validationFn := func(val interface{}) error {
		if val == nil || len(validOpts) == 0 {
			return nil
		}
		strVal := cl.StringMe(val)
		if strVal == nil || !slices.Contains(validOpts, *strVal) {
			return invalidInput(name, "Valid options are [%s]", strings.Join(validOpts, ", "))
		}
		return nil
	}
	cl.StringFlagOnFlagSet(flagSet, name, shorthand, defaultValue, description, validationFn)
}

// RegexFlagOnFlagSet creates and registers a flag accepting a string and validates that it is a valid regex.
func (cl *CommandLineInterface) RegexFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *string, description string) {
	validationFn := func(val interface{}) error {
		if val == nil {
			return nil
		}
		if _, ok := val.(*regexp.Regexp); ok {
			return nil
		}
		strVal := cl.StringMe(val)
		if strVal == nil {
			return invalidInput(name, "A regular expression is required")
		}
		regexVal, err := regexp.Compile(*strVal)
		if err != nil {
			return invalidInput(name, "Unable to compile the regular expression: %v", err)
		}
		cl.Flags[name] = regexVal
		return nil
	}
	cl.StringFlagOnFlagSet(flagSet, name, shorthand, defaultValue, description, validationFn)
}

// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// flagType is an internal interface for all flags.
type flagType interface {
	envName() string
	clear()
	reset()
	valueString() string
}

// definedFlags is a package variable which stores all the defined flags. It helps to find
// duplicates when defining flag with the same name.
var definedFlags = map[string]flagType{}

// cliAndEnvFlag represents option's definition from CLI and Environment variable.
type cliAndEnvFlag struct {
	*kingpin.FlagClause
}

func newCliAndEnvFlag(flagName string, description string, defaultValues ...string) *cliAndEnvFlag {
	if definedFlags[flagName] != nil {
		panic("This flag was already defined. Flag definition is lack of duplicate check.")
	}

	c := &cliAndEnvFlag{FlagClause: app.Flag(flagName, description)}
	c.OverrideDefaultFromEnvar(c.envName())

	for _, defaultValue := range defaultValues {
		if defaultValue == "" {
			continue
		}
		c.Default(defaultValue)
	}

	return c
}

// envName returns name converted to environment variable name.
// For instance: "data_dir" will be "RIG_DATA_DIR".
func (f *cliAndEnvFlag) envName() string {
	return fmt.Sprintf("%s_%s", EnvPrefix, strings.ToUpper(f.Model().Name))
}

// clear unsets the corresponding environment variable.
func (f *cliAndEnvFlag) clear() {
	os.Unsetenv(f.envName())
}

func (f *cliAndEnvFlag) reset() {}

// redefined returns the flag previously registered under flagName, if any.
func redefined(flagName string) flagType {
	return definedFlags[flagName]
}

// StringFlag represents flag with string value.
type StringFlag struct {
	*cliAndEnvFlag
	defaultValue string
	value        *string
}

// NewStringFlag is a constructor of StringFlag struct.
func NewStringFlag(flagName string, description string, defaultValue string) *StringFlag {
	if duplicated := redefined(flagName); duplicated != nil {
		flagDef, ok := duplicated.(*StringFlag)
		if !ok {
			panic("Flag was redefined but with different type. Unify the type.")
		}
		if flagDef.defaultValue != defaultValue {
			panic("Flag was redefined but with different default value. Unify the default.")
		}
		return flagDef
	}

	flagDef := &StringFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.String()
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (s StringFlag) Value() string {
	if !isEnvParsed {
		return s.defaultValue
	}
	return *s.value
}

func (s StringFlag) valueString() string {
	return s.Value()
}

// IntFlag represents flag with int value.
type IntFlag struct {
	*cliAndEnvFlag
	defaultValue int
	value        *int
}

// NewIntFlag is a constructor of IntFlag struct.
func NewIntFlag(flagName string, description string, defaultValue int) *IntFlag {
	if duplicated := redefined(flagName); duplicated != nil {
		flagDef, ok := duplicated.(*IntFlag)
		if !ok {
			panic("Flag was redefined but with different type. Unify the type.")
		}
		if flagDef.defaultValue != defaultValue {
			panic("Flag was redefined but with different default value. Unify the default.")
		}
		return flagDef
	}

	flagDef := &IntFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, strconv.Itoa(defaultValue)),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Int()
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (i IntFlag) Value() int {
	if !isEnvParsed {
		return i.defaultValue
	}
	return *i.value
}

func (i IntFlag) valueString() string {
	return strconv.Itoa(i.Value())
}

// BoolFlag represents flag with bool value.
type BoolFlag struct {
	*cliAndEnvFlag
	defaultValue bool
	value        *bool
}

// NewBoolFlag is a constructor of BoolFlag struct.
func NewBoolFlag(flagName string, description string, defaultValue bool) *BoolFlag {
	if duplicated := redefined(flagName); duplicated != nil {
		flagDef, ok := duplicated.(*BoolFlag)
		if !ok {
			panic("Flag was redefined but with different type. Unify the type.")
		}
		if flagDef.defaultValue != defaultValue {
			panic("Flag was redefined but with different default value. Unify the default.")
		}
		return flagDef
	}

	flagDef := &BoolFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, strconv.FormatBool(defaultValue)),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Bool()
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (b BoolFlag) Value() bool {
	if !isEnvParsed {
		return b.defaultValue
	}
	return *b.value
}

func (b BoolFlag) valueString() string {
	return strconv.FormatBool(b.Value())
}

// DurationFlag represents flag with duration value.
type DurationFlag struct {
	*cliAndEnvFlag
	defaultValue time.Duration
	value        *time.Duration
}

// NewDurationFlag is a constructor of DurationFlag struct.
func NewDurationFlag(flagName string, description string, defaultValue time.Duration) *DurationFlag {
	if duplicated := redefined(flagName); duplicated != nil {
		flagDef, ok := duplicated.(*DurationFlag)
		if !ok {
			panic("Flag was redefined but with different type. Unify the type.")
		}
		if flagDef.defaultValue != defaultValue {
			panic("Flag was redefined but with different default value. Unify the default.")
		}
		return flagDef
	}

	flagDef := &DurationFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue.String()),
		defaultValue:  defaultValue,
	}
	flagDef.value = flagDef.Duration()
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (d DurationFlag) Value() time.Duration {
	if !isEnvParsed {
		return d.defaultValue
	}
	return *d.value
}

func (d DurationFlag) valueString() string {
	return d.Value().String()
}

// SliceFlag represents flag with slice value.
type SliceFlag struct {
	*cliAndEnvFlag
	defaultValue []string
	value        *[]string
}

// NewSliceFlag is a constructor of SliceFlag struct.
func NewSliceFlag(flagName string, description string, elemsInDefaultSlice ...string) *SliceFlag {
	if duplicated := redefined(flagName); duplicated != nil {
		flagDef, ok := duplicated.(*SliceFlag)
		if !ok {
			panic("Flag was redefined but with different type. Unify the type.")
		}
		if strings.Join(flagDef.defaultValue, ",") != strings.Join(elemsInDefaultSlice, ",") {
			panic("Flag was redefined but with different default value. Unify the default.")
		}
		return flagDef
	}

	flagDef := &SliceFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, strings.Join(elemsInDefaultSlice, ",")),
		defaultValue:  elemsInDefaultSlice,
	}
	flagDef.value = StringList(flagDef)
	definedFlags[flagName] = flagDef
	isEnvParsed = false
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (s SliceFlag) Value() []string {
	if !isEnvParsed {
		return append([]string{}, s.defaultValue...)
	}
	return append([]string{}, *s.value...)
}

func (s SliceFlag) reset() {
	*s.value = (*s.value)[:0]
}

func (s SliceFlag) valueString() string {
	return strings.Join(s.Value(), ",")
}

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

package outputs

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/samber/lo"
)

const (
	// table formatting
	headerAndFooterPadding = 8
	headerPadding          = 2
	rowsPerPage            = 10
	maxWidth               = 80

	// column keys
	colKeySelected     = "Selected"
	colKeyInstanceType = "Instance Type"

	selectedMark = "✔"

	// controls
	tableControls = "Controls: ↑/↓ - up/down • shift + ←/→ - pg up/down • f - search • space - select • enter - done • q - quit"
	ellipses      = "..."
)

var (
	customBorder = table.Border{
		Top:    "─",
		Left:   "│",
		Right:  "│",
		Bottom: "─",

		TopRight:    "╮",
		TopLeft:     "╭",
		BottomRight: "╯",
		BottomLeft:  "╰",

		TopJunction:    "┬",
		LeftJunction:   "├",
		RightJunction:  "┤",
		BottomJunction: "┴",
		InnerJunction:  "┼",

		InnerDivider: "│",
	}
)

// matchesSearch reports whether instanceType contains searchTerm, ignoring case and dots,
// so "c52" finds "c5.2xlarge"
func matchesSearch(instanceType string, searchTerm string) bool {
	normalize := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), ".", "")
	}
	return strings.Contains(normalize(instanceType), normalize(searchTerm))
}

// createFilterTextInput creates and styles a text input for searching
func createFilterTextInput() textinput.Model {
	filterTextInput := textinput.New()
	filterTextInput.Prompt = "Search: "
	filterTextInput.Placeholder = "e.g. c52 for c5.2xlarge"
	filterTextInput.PromptStyle = lipgloss.NewStyle().Bold(true)

	return filterTextInput
}

// createRows creates a row for each instance type matching the search term
func createRows(instanceTypes []string, selected map[string]bool, searchTerm string) []table.Row {
	matching := lo.Filter(instanceTypes, func(instanceType string, _ int) bool {
		return matchesSearch(instanceType, searchTerm)
	})
	return lo.Map(matching, func(instanceType string, _ int) table.Row {
		mark := ""
		if selected[instanceType] {
			mark = selectedMark
		}
		return table.NewRow(table.RowData{
			colKeySelected:     mark,
			colKeyInstanceType: instanceType,
		})
	})
}

// createColumns sizes the name column to the longest instance type name
func createColumns(instanceTypes []string) []table.Column {
	nameWidth := len(colKeyInstanceType) + headerPadding
	for _, instanceType := range instanceTypes {
		nameWidth = max(nameWidth, len(instanceType)+headerPadding)
	}
	return []table.Column{
		table.NewColumn(colKeySelected, " ", len(selectedMark)+headerPadding),
		table.NewColumn(colKeyInstanceType, colKeyInstanceType, nameWidth),
	}
}

// createKeyMap creates a KeyMap with the controls for the table
func createKeyMap() table.KeyMap {
	return table.KeyMap{
		RowDown: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		RowUp: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("shift+right", "pgdown"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("shift+left", "pgup"),
		),
	}
}

// createTable creates an interactive table listing the given instance type names
func createTable(instanceTypes []string) table.Model {
	return table.New(createColumns(instanceTypes)).
		WithRows(createRows(instanceTypes, nil, "")).
		WithKeyMap(createKeyMap()).
		WithPageSize(rowsPerPage).
		Focused(true).
		Border(customBorder).
		WithMaxTotalWidth(maxWidth).
		WithBaseStyle(
			lipgloss.NewStyle().
				Align(lipgloss.Left),
		).
		HeaderStyle(lipgloss.NewStyle().Align(lipgloss.Center).Bold(true))
}

// footer renders the page, selection count and controls, cutting the controls short to avoid wrapping
func footer(t table.Model, selectedCount int, width int) string {
	controls := []rune(tableControls)
	controlsStr := tableControls
	pageStr := fmt.Sprintf("Page: %d/%d | Selected: %d | ", t.CurrentPage(), t.MaxPages(), selectedCount)
	if width < len(pageStr)+len(controls) {
		controlsWidth := max(0, min(width-len(ellipses)-len(pageStr)-2, len(controls)))
		controlsStr = string(controls[:controlsWidth]) + ellipses
	}
	renderedControls := lipgloss.NewStyle().Faint(true).Render(controlsStr)
	return fmt.Sprintf("%s%s", pageStr, renderedControls)
}

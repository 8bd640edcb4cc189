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
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
	"github.com/samber/lo"
)

// BubbleTeaModel is used to hold the state of the bubble tea TUI
type BubbleTeaModel struct {
	instanceTypes []string
	selected      map[string]bool

	// TableModel is the table of instance type names currently matching the search
	TableModel table.Model

	// the model for the search text input
	filterTextInput textinput.Model

	tableWidth int
	confirmed  bool
}

// NewBubbleTeaModel initializes a new bubble tea Model which represents
// a stylized, searchable table to pick instance types from
func NewBubbleTeaModel(instanceTypes []string) BubbleTeaModel {
	m := BubbleTeaModel{
		instanceTypes:   instanceTypes,
		selected:        map[string]bool{},
		TableModel:      createTable(instanceTypes),
		filterTextInput: createFilterTextInput(),
		tableWidth:      maxWidth,
	}
	m.TableModel = m.TableModel.WithStaticFooter(footer(m.TableModel, 0, m.tableWidth))
	return m
}

// Init is used by bubble tea to initialize a bubble tea table
func (m BubbleTeaModel) Init() tea.Cmd {
	return nil
}

// Selected returns the chosen instance types in ascending order.
// It is empty unless the user finished with enter.
func (m BubbleTeaModel) Selected() []string {
	if !m.confirmed {
		return []string{}
	}
	selected := lo.Keys(m.selected)
	slices.Sort(selected)
	return selected
}

// Update is used by bubble tea to update the state of the bubble
// tea model based on user input
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resizeView(msg)
		return m.refresh(), nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// keys go to the search box while it has focus
		if m.filterTextInput.Focused() {
			var cmd tea.Cmd
			switch msg.String() {
			case "enter", "esc":
				m.filterTextInput.Blur()
			default:
				m.filterTextInput, cmd = m.filterTextInput.Update(msg)
				m.TableModel = m.TableModel.WithRows(m.rows())
			}
			return m.refresh(), cmd
		}

		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "f", "/":
			m.filterTextInput.Focus()
			return m.refresh(), textinput.Blink
		case " ":
			if instanceType, ok := m.highlighted(); ok {
				if m.selected[instanceType] {
					delete(m.selected, instanceType)
				} else {
					m.selected[instanceType] = true
				}
				m.TableModel = m.TableModel.WithRows(m.rows())
			}
			return m.refresh(), nil
		case "enter":
			// with nothing picked, enter takes the row under the cursor
			if len(m.selected) == 0 {
				if instanceType, ok := m.highlighted(); ok {
					m.selected[instanceType] = true
				}
			}
			m.confirmed = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.TableModel, cmd = m.TableModel.Update(msg)
	return m.refresh(), cmd
}

// View is used by bubble tea to render the bubble tea model
func (m BubbleTeaModel) View() string {
	outputStr := strings.Builder{}

	outputStr.WriteString(m.TableModel.View())
	outputStr.WriteString("\n")

	if m.filterTextInput.Value() != "" || m.filterTextInput.Focused() {
		outputStr.WriteString(m.filterTextInput.View())
		outputStr.WriteString("\n")
	}

	return outputStr.String()
}

func (m BubbleTeaModel) rows() []table.Row {
	return createRows(m.instanceTypes, m.selected, m.filterTextInput.Value())
}

func (m BubbleTeaModel) highlighted() (string, bool) {
	if len(m.TableModel.GetVisibleRows()) == 0 {
		return "", false
	}
	instanceType, ok := m.TableModel.HighlightedRow().Data[colKeyInstanceType].(string)
	return instanceType, ok
}

// refresh redraws the footer after any state change
func (m BubbleTeaModel) refresh() BubbleTeaModel {
	m.TableModel = m.TableModel.WithStaticFooter(footer(m.TableModel, len(m.selected), m.tableWidth))
	return m
}

// resizeView will change the dimensions of the table in order to accommodate
// the new window dimensions represented by the given tea.WindowSizeMsg
func (m BubbleTeaModel) resizeView(msg tea.WindowSizeMsg) BubbleTeaModel {
	m.tableWidth = min(msg.Width, maxWidth)
	m.TableModel = m.TableModel.WithMaxTotalWidth(m.tableWidth)

	if headerAndFooterPadding >= msg.Height {
		// height too short to fit rows
		m.TableModel = m.TableModel.WithPageSize(1)
	} else {
		m.TableModel = m.TableModel.WithPageSize(msg.Height - headerAndFooterPadding)
	}
	return m
}

package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// fuzzyMatch performs fuzzy matching and returns match status and positions.
// It matches characters from search in order within text (case-insensitive).
// Returns true if all characters in search were found, and the positions of those characters.
func fuzzyMatch(search, text string) (bool, []int) {
	needle := []rune(strings.ToLower(search))

	var positions []int
	searchIdx := 0

	for i, char := range []rune(strings.ToLower(text)) {
		if searchIdx < len(needle) && char == needle[searchIdx] {
			positions = append(positions, i)
			searchIdx++
		}
	}

	return searchIdx == len(needle), positions
}

// isPrefixMatch reports whether text starts with search, ignoring case.
func isPrefixMatch(search, text string) bool {
	return strings.HasPrefix(strings.ToLower(text), strings.ToLower(search))
}

// formatNameWithColor highlights the matched rune positions of name in bold dark green.
func formatNameWithColor(name string, positions []int) string {
	if len(positions) == 0 {
		return tview.Escape(name)
	}

	// Build a map of character positions to highlight
	highlightMap := make(map[int]bool)
	for _, pos := range positions {
		highlightMap[pos] = true
	}

	// Build the formatted string with color codes
	var result strings.Builder
	for i, r := range []rune(name) {
		if highlightMap[i] {
			result.WriteString("[darkgreen::b]")
			result.WriteString(tview.Escape(string(r)))
			result.WriteString("[-::-]")
		} else {
			result.WriteString(tview.Escape(string(r)))
		}
	}

	return result.String()
}

// cleanNames drops blank names and strips newlines and surrounding whitespace
func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ReplaceAll(name, "\n", ""))
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}

// FuzzySelector is the searchable view picker at the top of the pick dialog.
type FuzzySelector struct {
	*tview.Box
	items         []string          // Layer and table view names
	searchText    string            // Current search text
	selectedIndex int               // Highlighted item in dropdown
	dropdownList  *tview.List       // Dropdown list for showing filtered names
	maxVisible    int               // Max items to show in dropdown (6)
	inputField    *tview.InputField // Reference to the currently created input field
	innerFlex     *tview.Flex       // Inner flex container
	dropdownFlex  *tview.Flex       // Flex container for dropdown (to allow resizing)

	// Callbacks
	onSelect func(name string) // Called when a view is selected
	onClose  func()            // Called when the selector should be closed
}

// NewFuzzySelector creates a picker over names.
func NewFuzzySelector(names []string, onSelect func(string), onClose func()) *FuzzySelector {
	cleaned := cleanNames(names)
	fs := &FuzzySelector{
		Box:           tview.NewBox(),
		items:         cleaned,
		selectedIndex: 0,
		maxVisible:    6,
		onSelect:      onSelect,
		onClose:       onClose,
	}

	// Pre-initialize the layout so input field exists immediately
	filtered, matchPositions := fs.calculateFiltered("")
	fs.buildInnerLayout(filtered, matchPositions)

	return fs
}

// calculateFiltered returns the names matching search and the matched positions of
// each, keyed by index into the result. Prefix matches come first, then the other
// fuzzy matches, each group in original order.
func (fs *FuzzySelector) calculateFiltered(search string) ([]string, map[int][]int) {
	matchPositions := make(map[int][]int)

	if search == "" {
		for i := range fs.items {
			matchPositions[i] = []int{}
		}
		return fs.items, matchPositions
	}

	var prefixed, fuzzy []string
	var prefixedPos, fuzzyPos [][]int
	for _, name := range fs.items {
		matches, positions := fuzzyMatch(search, name)
		if !matches {
			continue
		}
		if isPrefixMatch(search, name) {
			prefixed = append(prefixed, name)
			prefixedPos = append(prefixedPos, positions)
		} else {
			fuzzy = append(fuzzy, name)
			fuzzyPos = append(fuzzyPos, positions)
		}
	}

	filtered := append(prefixed, fuzzy...)
	for i, positions := range append(prefixedPos, fuzzyPos...) {
		matchPositions[i] = positions
	}
	return filtered, matchPositions
}

// Draw implements tview.Primitive and renders the fuzzy selector.
// It calculates filtered results and match positions on each frame.
func (fs *FuzzySelector) Draw(screen tcell.Screen) {
	fs.Box.DrawForSubclass(screen, fs)

	// Calculate filtered results and match positions on each draw
	filtered, matchPositions := fs.calculateFiltered(fs.searchText)

	// Build or rebuild the inner layout if needed
	if fs.innerFlex == nil {
		fs.buildInnerLayout(filtered, matchPositions)
	} else {
		// Just update the dropdown list without rebuilding the input field
		fs.updateDropdownList(filtered, matchPositions)
	}

	// Draw the inner layout
	if fs.innerFlex != nil {
		x, y, width, height := fs.GetInnerRect()

		// Set up the inner flex with proper sizing
		fs.innerFlex.SetRect(x, y, width, height)
		fs.innerFlex.Draw(screen)
	}
}

// InputHandler returns the handler for keyboard events.
// This forwards input to the input field so it can receive keystrokes.
func (fs *FuzzySelector) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return fs.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		// Forward all input to the input field if it exists
		if fs.inputField != nil {
			if handler := fs.inputField.InputHandler(); handler != nil {
				handler(event, setFocus)
				return
			}
		}
	})
}

// MouseHandler returns the handler for mouse events.
// This enables hover highlighting and click selection in the dropdown list.
func (fs *FuzzySelector) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return fs.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		// Get mouse position
		mouseX, mouseY := event.Position()

		// Check if mouse is over the dropdown list
		if fs.dropdownList != nil {
			listX, listY, listWidth, listHeight := fs.dropdownList.GetRect()

			// Check if mouse is within dropdown bounds
			if mouseX >= listX && mouseX < listX+listWidth &&
				mouseY >= listY && mouseY < listY+listHeight {

				filtered, _ := fs.calculateFiltered(fs.searchText)
				if len(filtered) == 0 {
					return false, nil
				}

				// Calculate which item the mouse is over
				itemIndex := mouseY - listY
				if itemIndex >= 0 && itemIndex < len(filtered) {
					switch action {
					case tview.MouseMove:
						// Hover: highlight the item
						fs.dropdownList.SetCurrentItem(itemIndex)
						fs.selectedIndex = itemIndex
						return true, nil

					case tview.MouseLeftClick:
						// Click: select the item
						if fs.onSelect != nil {
							fs.clearSearchText()
							fs.onSelect(filtered[itemIndex])
						}
						return true, nil
					}
				}
			}
		}

		// Forward other mouse events to inner components
		if fs.innerFlex != nil {
			if handler := fs.innerFlex.MouseHandler(); handler != nil {
				consumed, primitive := handler(action, event, setFocus)
				if consumed {
					return true, primitive
				}
			}
		}

		return false, nil
	})
}

// Focus is called when this primitive receives focus.
func (fs *FuzzySelector) Focus(delegate func(p tview.Primitive)) {
	// Forward focus to the input field
	if fs.inputField != nil {
		delegate(fs.inputField)
	}
}

// HasFocus returns whether or not this primitive has focus.
func (fs *FuzzySelector) HasFocus() bool {
	// Check if the input field has focus
	if fs.inputField != nil {
		return fs.inputField.HasFocus()
	}
	return false
}

// buildInnerLayout builds the internal flex layout with input field and dropdown.
func (fs *FuzzySelector) buildInnerLayout(filtered []string, matchPositions map[int][]int) {
	inputField := fs.createInputField()
	fs.createDropdownListWithData(filtered, matchPositions)

	// Calculate height for dropdown
	listHeight := len(filtered)
	if listHeight == 0 {
		listHeight = 1 // Show "No results"
	}
	if listHeight > fs.maxVisible {
		listHeight = fs.maxVisible
	}

	// Inner flex: input field + dropdown list
	fs.dropdownFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(inputField, 1, 0, true).
		AddItem(fs.dropdownList, listHeight, 0, false)

	// Outer flex: 1-character left padding + inner flex
	fs.innerFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(tview.NewBox(), 1, 0, false). // 1-character left padding
		AddItem(fs.dropdownFlex, 0, 1, true)
}

// updateDropdownList updates just the dropdown list without rebuilding the input field.
func (fs *FuzzySelector) updateDropdownList(filtered []string, matchPositions map[int][]int) {
	if fs.dropdownFlex == nil {
		return
	}

	// Remove old dropdown from flex
	fs.dropdownFlex.RemoveItem(fs.dropdownList)

	// Create new dropdown with updated data
	fs.createDropdownListWithData(filtered, matchPositions)

	// Calculate height for dropdown
	listHeight := len(filtered)
	if listHeight == 0 {
		listHeight = 1 // Show "No results"
	}
	if listHeight > fs.maxVisible {
		listHeight = fs.maxVisible
	}

	// Add new dropdown to flex
	fs.dropdownFlex.AddItem(fs.dropdownList, listHeight, 0, false)
}

// createInputField creates and returns a new input field for the edit mode.
func (fs *FuzzySelector) createInputField() *tview.InputField {
	inputField := tview.NewInputField().
		SetLabel("").
		SetText(fs.searchText).
		SetPlaceholder("Search layers and table views...").
		SetFieldWidth(0)

	// Store reference to the input field
	fs.inputField = inputField

	// Update search text (dropdown will be updated in Draw)
	inputField.SetChangedFunc(func(text string) {
		fs.searchText = text
	})

	// Handle keyboard navigation and selection
	inputField.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		filtered, _ := fs.calculateFiltered(fs.searchText)

		switch event.Key() {
		case tcell.KeyEscape:
			// Close the fuzzy selector
			if fs.onClose != nil {
				fs.onClose()
			}
			return nil // Consume the event
		case tcell.KeyDown, tcell.KeyTab:
			// Move focus to dropdown list (select first item)
			if fs.dropdownList != nil && len(filtered) > 0 {
				fs.selectedIndex++
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
				return tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)
			}
			return nil
		case tcell.KeyUp, tcell.KeyBacktab:
			// Move focus to dropdown list (select last item)
			if fs.dropdownList != nil && len(filtered) > 0 {
				fs.selectedIndex--
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
				return tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)
			}
			return nil
		case tcell.KeyEnter:
			// Select the currently highlighted item in dropdown
			if fs.dropdownList != nil && len(filtered) > 0 {
				if idx := fs.dropdownList.GetCurrentItem(); idx >= 0 && idx < len(filtered) {
					if fs.onSelect != nil {
						fs.clearSearchText()
						fs.onSelect(filtered[idx])
					}
				}
				return nil // Consume the event
			}
		}
		return event
	})

	return inputField
}

// clearSearchText clears the search text and updates the input field.
func (fs *FuzzySelector) clearSearchText() {
	fs.searchText = ""
	if fs.inputField != nil {
		fs.inputField.SetText("")
	}
	fs.selectedIndex = 0
}

// createDropdownListWithData creates and populates the dropdown list with pre-calculated filtered results.
func (fs *FuzzySelector) createDropdownListWithData(filtered []string, matchPositions map[int][]int) {
	fs.dropdownList = tview.NewList().
		SetWrapAround(true).
		ShowSecondaryText(false)

	// Populate with filtered results
	if len(filtered) == 0 {
		fs.dropdownList.AddItem("No results", "", rune(0), nil)
	} else {
		for i, name := range filtered {
			displayText := formatNameWithColor(name, matchPositions[i])

			fs.dropdownList.AddItem(displayText, "", rune(0), func() {
				if fs.onSelect != nil {
					fs.clearSearchText()
					fs.onSelect(name)
				}
			})
		}
	}

	// Set current item to match selectedIndex
	if fs.selectedIndex >= 0 && fs.selectedIndex < len(filtered) {
		fs.dropdownList.SetCurrentItem(fs.selectedIndex)
	}

	// Handle navigation in dropdown
	fs.dropdownList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentItem := fs.dropdownList.GetCurrentItem()

		switch event.Key() {
		case tcell.KeyEscape:
			// Return focus to input field
			return tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone)
		case tcell.KeyUp:
			// If at first item, move focus back to input field
			if currentItem == 0 {
				return tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone)
			}
			// Otherwise, let the list handle up navigation
			return event
		case tcell.KeyBacktab:
			// Shift+Tab always returns to input field
			return event
		case tcell.KeyEnter:
			// Select the current item
			if currentItem >= 0 && currentItem < len(filtered) {
				if fs.onSelect != nil {
					fs.clearSearchText()
					fs.onSelect(filtered[currentItem])
				}
			}
			return nil // Consume the event
		}
		return event
	})
}

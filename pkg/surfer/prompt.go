package surfer

import (
	"fmt"
	"strings"

	"github.com/entrhq/surfer/pkg/browser"
)

const promptTemplate = `Consider the following screenshot of a web browser, which is open to the page '%s'. In this screenshot, interactive elements are outlined in bounding boxes of different colors. Each bounding box has a numeric ID label in the same color. Additional information about each visible label is listed below:

[
%s
]
%s
You are to respond to the user's most recent request by selecting an appropriate tool from the provided set of browser tools (%s), or by answering the question directly if possible.`

const labelTemplate = "\n   { \"id\": %s, \"aria-role\": \"%s\", \"html_tag\": \"%s\", \"actions\": \"%s\", \"name\": \"%s\" },"

// Roles that accept typed text rather than clicks.
var inputRoles = map[string]bool{
	"textbox":   true,
	"searchbox": true,
	"search":    true,
}

// elementActions lists the tools the model may apply to a region, quoted the
// way they appear in the label list.
func elementActions(region browser.InteractiveRegion) []string {
	actions := []string{"'click'"}
	if inputRoles[region.Role] {
		actions = []string{"'input_text'"}
	}
	if region.VScrollable {
		actions = append(actions, "'scroll_element_up'", "'scroll_element_down'")
	}
	return actions
}

// buildLabels renders one label line per visible id known to regions and
// reports whether any of them scrolls vertically.
func buildLabels(visible []string, regions map[string]browser.InteractiveRegion) (string, bool) {
	var b strings.Builder
	scrollable := false
	for _, id := range visible {
		region, ok := regions[id]
		if !ok {
			continue
		}
		if region.VScrollable {
			scrollable = true
		}
		actions := "[" + strings.Join(elementActions(region), ",") + "]"
		fmt.Fprintf(&b, labelTemplate, id, region.Role, region.TagName, actions, region.AriaName)
	}
	return b.String(), scrollable
}

// focusHint describes the element holding input focus, or returns "" when
// nothing is focused.
func focusHint(focused string, regions map[string]browser.InteractiveRegion) string {
	if focused == "" {
		return ""
	}
	role := "control"
	name := ""
	if region, ok := regions[focused]; ok {
		role = region.Role
		name = region.AriaName
	}
	if name != "" {
		name = fmt.Sprintf("(and name '%s') ", name)
	}
	return "\nThe " + role + " with ID " + focused + " " + name + "currently has the input focus.\n"
}

func buildPrompt(url, labels, hint string, tools []string) string {
	return strings.TrimSpace(fmt.Sprintf(promptTemplate, url, labels, hint, strings.Join(tools, ", ")))
}

// targetName is the trimmed accessible name of id, or "" when unknown.
func targetName(id string, regions map[string]browser.InteractiveRegion) string {
	return strings.TrimSpace(regions[id].AriaName)
}

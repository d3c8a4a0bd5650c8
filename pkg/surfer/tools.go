package surfer

import (
	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/llm"
)

// Tool names offered to the model.
const (
	ToolVisitURL          = "visit_url"
	ToolWebSearch         = "web_search"
	ToolHistoryBack       = "history_back"
	ToolPageUp            = "page_up"
	ToolPageDown          = "page_down"
	ToolClick             = "click"
	ToolInputText         = "input_text"
	ToolScrollElementUp   = "scroll_element_up"
	ToolScrollElementDown = "scroll_element_down"
	ToolSummarizePage     = "summarize_page"
	ToolAnswerQuestion    = "answer_question"
)

// searchProbeURL is checked against the allow list to decide whether web_search is offered.
const searchProbeURL = "https://www.bing.com/"

// Viewport slack, in pixels, before page_up/page_down are offered.
const scrollSlack = 5

var reasoningProperty = map[string]interface{}{
	"type":        "string",
	"description": "A short explanation of the reasoning for calling this function and what it is expected to achieve.",
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// newTool builds a tool whose arguments always include "reasoning".
func newTool(name, description string, properties map[string]interface{}, required ...string) llm.Tool {
	props := map[string]interface{}{"reasoning": reasoningProperty}
	for k, v := range properties {
		props[k] = v
	}
	return llm.Tool{
		Name:        name,
		Description: description,
		Parameters:  llm.ObjectSchema(props, append([]string{"reasoning"}, required...)),
	}
}

var (
	toolVisitURL = newTool(ToolVisitURL,
		"Navigate directly to a provided URL using the browser's address bar. Prefer this tool over other navigation techniques in cases where the user provides a fully-qualified URL (e.g., choose it over clicking links, or inputing queries into search boxes).",
		map[string]interface{}{"url": stringProperty("The URL to visit in the browser.")},
		"url")

	toolWebSearch = newTool(ToolWebSearch,
		"Performs a web search on Bing.com with the given query.",
		map[string]interface{}{"query": stringProperty("The web search query to use.")},
		"query")

	toolHistoryBack = newTool(ToolHistoryBack,
		"Navigates back one page in the browser's history. This is equivalent to clicking the browser back button.",
		nil)

	toolPageUp = newTool(ToolPageUp,
		"Scrolls the entire browser viewport one page UP towards the beginning.",
		nil)

	toolPageDown = newTool(ToolPageDown,
		"Scrolls the entire browser viewport one page DOWN towards the end.",
		nil)

	toolClick = newTool(ToolClick,
		"Clicks the mouse on the target with the given id.",
		map[string]interface{}{"target_id": integerProperty("The numeric id of the target to click.")},
		"target_id")

	toolInputText = newTool(ToolInputText,
		"Types the given text value into the specified field.",
		map[string]interface{}{
			"input_field_id": integerProperty("The numeric id of the input field to receive the text."),
			"text_value":     stringProperty("The text to type into the input field."),
		},
		"input_field_id", "text_value")

	toolScrollElementUp = newTool(ToolScrollElementUp,
		"Scrolls a given html element (e.g., a div or a menu) UP.",
		map[string]interface{}{"target_id": integerProperty("The numeric id of the target to scroll up.")},
		"target_id")

	toolScrollElementDown = newTool(ToolScrollElementDown,
		"Scrolls a given html element (e.g., a div or a menu) DOWN.",
		map[string]interface{}{"target_id": integerProperty("The numeric id of the target to scroll down.")},
		"target_id")

	toolSummarizePage = newTool(ToolSummarizePage,
		"Uses AI to summarize the entire page.",
		nil)

	toolAnswerQuestion = newTool(ToolAnswerQuestion,
		"Uses AI to answer a question about the current webpage's content.",
		map[string]interface{}{"question": stringProperty("The question to answer.")},
		"question")
)

// availableTools returns the tools offered this turn, in a stable order.
func availableTools(page Page, vp browser.VisualViewport, hasScrollable bool) []llm.Tool {
	tools := []llm.Tool{
		toolVisitURL,
		toolHistoryBack,
		toolClick,
		toolInputText,
		toolSummarizePage,
		toolAnswerQuestion,
	}

	if page.Allowed(searchProbeURL) {
		tools = append(tools, toolWebSearch)
	}
	if vp.PageTop > scrollSlack {
		tools = append(tools, toolPageUp)
	}
	if vp.PageTop+vp.Height+scrollSlack < vp.ScrollHeight {
		tools = append(tools, toolPageDown)
	}
	if hasScrollable {
		tools = append(tools, toolScrollElementUp, toolScrollElementDown)
	}
	return tools
}

func toolNames(tools []llm.Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

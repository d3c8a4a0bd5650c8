package surfer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/surfer/pkg/browser"
	"github.com/entrhq/surfer/pkg/eventlog"
	"github.com/entrhq/surfer/pkg/types"
)

// ErrUnknownTool is returned when the model calls a tool outside the tool set.
var ErrUnknownTool = errors.New("Unknown tool")

// Schemes visit_url navigates to as given.
var knownSchemes = []string{"https://", "http://", "file://", "about:"}

// searchURL builds the Bing results URL for query.
func searchURL(query string) string {
	return "https://www.bing.com/search?q=" + url.QueryEscape(query) + "&FORM=QBLH"
}

// resolveAddress turns what the model typed into the address bar into a URL:
// known schemes pass through, text with spaces becomes a search and anything
// else is assumed to be a host.
func resolveAddress(address string) string {
	for _, scheme := range knownSchemes {
		if strings.HasPrefix(address, scheme) {
			return address
		}
	}
	if strings.Contains(address, " ") {
		return searchURL(address)
	}
	return "https://" + address
}

// toolErrorText reports whether err should be shown to the model as the turn's
// reply rather than failing the turn, and the text to show.
func toolErrorText(err error) (string, bool) {
	switch {
	case errors.Is(err, browser.ErrNoSuchElement):
		return browser.ErrNoSuchElement.Error(), true
	case errors.Is(err, ErrUnknownTool), errors.Is(err, ErrInvalidArguments):
		return err.Error(), true
	default:
		return "", false
	}
}

// execute performs the model's tool call and returns the narration of it.
func (s *Surfer) execute(ctx context.Context, t *turn, call types.ToolCall, rects map[string]browser.InteractiveRegion) (string, error) {
	args, err := parseArguments(call.Arguments)
	if err != nil {
		s.console.Action(call.Name, nil)
		s.emit(types.NewToolResultErrorEvent(call.Name, err))
		s.metrics.RecordToolCall(metricToolName(call.Name), err)
		return "", err
	}

	s.console.Action(call.Name, args.ordered)
	s.emit(types.NewToolCallEvent(call.Name, args.raw))
	s.events.LogEvent(ctx, eventSource, eventlog.EventBrowserAction, map[string]interface{}{
		"action":    call.Name,
		"arguments": args.raw,
	})

	action, err := s.dispatch(ctx, t, call.Name, args, rects)
	s.metrics.RecordToolCall(metricToolName(call.Name), err)
	if err != nil {
		s.emit(types.NewToolResultErrorEvent(call.Name, err))
		return "", err
	}
	s.emit(types.NewToolResultEvent(call.Name, action))
	return action, nil
}

func (s *Surfer) dispatch(ctx context.Context, t *turn, name string, args *arguments, rects map[string]browser.InteractiveRegion) (string, error) {
	switch name {
	case ToolVisitURL:
		address, err := args.require("url")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("I typed '%s' into the browser address bar.", address),
			s.page.Visit(ctx, resolveAddress(address))

	case ToolHistoryBack:
		return "I clicked the browser back button.", s.page.Back(ctx)

	case ToolWebSearch:
		query, err := args.require("query")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("I typed '%s' into the browser search bar.", query),
			s.page.Visit(ctx, searchURL(query))

	case ToolPageUp:
		return "I scrolled up one page in the browser.", s.page.PageUp(ctx)

	case ToolPageDown:
		return "I scrolled down one page in the browser.", s.page.PageDown(ctx)

	case ToolClick:
		id, err := args.require("target_id")
		if err != nil {
			return "", err
		}
		action := "I clicked the control."
		if n := targetName(id, rects); n != "" {
			action = fmt.Sprintf("I clicked '%s'.", n)
		}
		return action, s.page.ClickID(ctx, id)

	case ToolInputText:
		id, err := args.require("input_field_id")
		if err != nil {
			return "", err
		}
		value, err := args.require("text_value")
		if err != nil {
			return "", err
		}
		action := fmt.Sprintf("I input '%s'.", value)
		if n := targetName(id, rects); n != "" {
			action = fmt.Sprintf("I typed '%s' into '%s'.", value, n)
		}
		return action, s.page.FillID(ctx, id, value)

	case ToolScrollElementUp, ToolScrollElementDown:
		id, err := args.require("target_id")
		if err != nil {
			return "", err
		}
		direction := browser.ScrollUp
		if name == ToolScrollElementDown {
			direction = browser.ScrollDown
		}
		action := fmt.Sprintf("I scrolled the control %s.", direction)
		if n := targetName(id, rects); n != "" {
			action = fmt.Sprintf("I scrolled '%s' %s.", n, direction)
		}
		return action, s.page.ScrollID(ctx, id, direction)

	case ToolAnswerQuestion:
		question, err := args.require("question")
		if err != nil {
			return "", err
		}
		return s.summarizePage(ctx, t, question)

	case ToolSummarizePage:
		return s.summarizePage(ctx, t, "")

	default:
		s.events.LogEvent(ctx, eventSource, eventlog.EventUnknownTool, map[string]interface{}{"error": name})
		return "", fmt.Errorf("%w '%s'", ErrUnknownTool, name)
	}
}

// metricToolName keeps the tool label bounded to the known tool set.
func metricToolName(name string) string {
	switch name {
	case ToolVisitURL, ToolWebSearch, ToolHistoryBack, ToolPageUp, ToolPageDown,
		ToolClick, ToolInputText, ToolScrollElementUp, ToolScrollElementDown,
		ToolSummarizePage, ToolAnswerQuestion:
		return name
	default:
		return "unknown"
	}
}

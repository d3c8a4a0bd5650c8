package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/surfer/pkg/agent/memory"
	"github.com/entrhq/surfer/pkg/logging"
	"github.com/entrhq/surfer/pkg/metrics"
	"github.com/entrhq/surfer/pkg/types"
)

var agentDebugLog *logging.Logger

func init() {
	var err error
	agentDebugLog, err = logging.NewLogger("agent")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		agentDebugLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// DefaultAgent runs one surfer turn per user input. Turns run one at a time
// in the order their inputs arrived; a cancel input aborts the turn in flight
// and every turn still waiting behind it.
type DefaultAgent struct {
	surfer     Surfer
	channels   *types.AgentChannels
	bufferSize int
	memory     memory.Memory
	metrics    *metrics.Collector

	// queue holds accepted turns not yet started; current is the one running.
	queueMu sync.Mutex
	queue   []*turn
	current *turn
	wake    chan struct{}
	worker  sync.WaitGroup

	// Closed when the event loop stops accepting work.
	quit chan struct{}

	running bool
	runMu   sync.Mutex
}

// AgentOption is a function that configures an agent
type AgentOption func(*DefaultAgent)

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) AgentOption {
	return func(a *DefaultAgent) {
		a.bufferSize = size
	}
}

// WithMemory replaces the conversation memory.
func WithMemory(m memory.Memory) AgentOption {
	return func(a *DefaultAgent) {
		a.memory = m
	}
}

// WithMetrics records turn durations on the collector.
func WithMetrics(c *metrics.Collector) AgentOption {
	return func(a *DefaultAgent) {
		a.metrics = c
	}
}

// NewDefaultAgent creates a new DefaultAgent driving the given surfer.
func NewDefaultAgent(s Surfer, opts ...AgentOption) *DefaultAgent {
	a := &DefaultAgent{
		surfer:     s,
		bufferSize: 10,
		memory:     memory.NewConversationMemory(),
		quit:       make(chan struct{}),
		wake:       make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.channels = types.NewAgentChannels(a.bufferSize)

	if o, ok := s.(observable); ok {
		o.SetObserver(a.emitEvent)
	}

	return a
}

// Start begins the agent's event loop in a goroutine.
func (a *DefaultAgent) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return fmt.Errorf("agent is already running")
	}
	a.running = true
	a.runMu.Unlock()

	go a.eventLoop(ctx)

	return nil
}

// Shutdown stops the agent and waits for the event loop to exit.
func (a *DefaultAgent) Shutdown(ctx context.Context) error {
	a.runMu.Lock()
	select {
	case <-a.channels.Shutdown:
	default:
		close(a.channels.Shutdown)
	}
	a.runMu.Unlock()

	select {
	case <-a.channels.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetChannels returns the communication channels for this agent.
func (a *DefaultAgent) GetChannels() *types.AgentChannels {
	return a.channels
}

// History returns a copy of the conversation so far.
func (a *DefaultAgent) History() []*types.Message {
	return a.memory.GetAll()
}

// turn is one accepted input together with the context it runs under.
type turn struct {
	input  *types.Input
	ctx    context.Context
	cancel context.CancelFunc
}

// eventLoop is the main processing loop for the agent.
func (a *DefaultAgent) eventLoop(ctx context.Context) {
	loopCtx, stop := context.WithCancel(ctx)

	a.worker.Add(1)
	go a.runTurns(loopCtx)

	defer a.channels.Close()
	defer func() {
		a.runMu.Lock()
		a.running = false
		a.runMu.Unlock()
	}()
	defer func() {
		close(a.quit)
		stop()
		a.worker.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			select {
			case a.channels.Event <- types.NewErrorEvent(ctx.Err()):
			default:
			}
			return

		case <-a.channels.Shutdown:
			return

		case input := <-a.channels.Input:
			if input == nil {
				return
			}

			// Cancellation is handled here so it reaches turns that have not started yet.
			if input.IsCancel() {
				a.cancelTurns()
				continue
			}
			a.enqueue(loopCtx, input)
		}
	}
}

// enqueue registers a turn for input. Its context exists from this point on,
// so a cancel arriving before the turn starts still applies to it.
func (a *DefaultAgent) enqueue(ctx context.Context, input *types.Input) {
	turnCtx, cancel := context.WithCancel(ctx)

	a.queueMu.Lock()
	a.queue = append(a.queue, &turn{input: input, ctx: turnCtx, cancel: cancel})
	a.queueMu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *DefaultAgent) cancelTurns() {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	if a.current != nil {
		a.current.cancel()
	}
	for _, t := range a.queue {
		t.cancel()
	}
}

// next pops the oldest queued turn and marks it current.
func (a *DefaultAgent) next() *turn {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	a.current = nil
	if len(a.queue) == 0 {
		return nil
	}
	t := a.queue[0]
	a.queue[0] = nil
	a.queue = a.queue[1:]
	a.current = t
	return t
}

// runTurns processes queued turns in arrival order until ctx is done.
func (a *DefaultAgent) runTurns(ctx context.Context) {
	defer a.worker.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}
		for t := a.next(); t != nil; t = a.next() {
			if ctx.Err() != nil {
				t.cancel()
				return
			}
			a.processInput(t.ctx, t.input)
			t.cancel()
		}
	}
}

// processInput handles a single input from the user.
func (a *DefaultAgent) processInput(ctx context.Context, input *types.Input) {
	switch {
	case input.IsReset():
		a.reset(ctx)
	case input.IsUserInput():
		a.processUserInput(ctx, input.Content)
	default:
		agentDebugLog.Warnf("Ignoring input of type %q", input.Type)
	}
}

// reset clears the conversation and returns the browser to its start page.
func (a *DefaultAgent) reset(ctx context.Context) {
	a.emitEvent(types.NewUpdateBusyEvent(true))

	a.memory.Clear()
	if err := a.surfer.Reset(ctx); err != nil {
		agentDebugLog.Errorf("Reset failed: %v", err)
		a.emitEvent(types.NewErrorEvent(fmt.Errorf("reset browser: %w", err)))
	} else {
		agentDebugLog.Infof("Conversation reset")
		a.emitEvent(types.NewResetEvent())
	}
	a.emitEvent(types.NewUpdateBusyEvent(false))
	a.emitEvent(types.NewTurnEndEvent())
}

// processUserInput runs one surfer turn for a user request.
func (a *DefaultAgent) processUserInput(ctx context.Context, content string) {
	a.memory.Add(types.NewUserMessage(content))
	a.emitEvent(types.NewUpdateBusyEvent(true))

	var reply *types.Message
	err := ctx.Err()
	if err == nil {
		start := time.Now()
		reply, err = a.surfer.GenerateReply(ctx, a.memory.GetAll())
		a.metrics.ObserveTurn(time.Since(start))
	}

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		agentDebugLog.Infof("Turn canceled")
		a.emitEvent(types.NewErrorEvent(fmt.Errorf("turn canceled: %w", err)))
	case err != nil:
		agentDebugLog.Errorf("Turn failed: %v", err)
		a.emitEvent(types.NewErrorEvent(err))
	default:
		a.memory.Add(reply)
		a.emitEvent(types.NewMessageEvent(reply))
	}

	a.emitEvent(types.NewUpdateBusyEvent(false))
	a.emitEvent(types.NewTurnEndEvent())
}

// emitEvent delivers an event to the executor. Events are dropped once the
// agent is shutting down and nobody may be reading.
func (a *DefaultAgent) emitEvent(event *types.AgentEvent) {
	select {
	case a.channels.Event <- event:
	case <-a.quit:
		agentDebugLog.Debugf("Dropping %s event during shutdown", event.Type)
	}
}

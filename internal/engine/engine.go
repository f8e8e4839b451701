// Package engine reconciles events from the realtime transport and the REST
// persistence API into one consistent per-conversation read model, and drives
// the call signaling lifecycle.
//
// All state lives behind a single run goroutine: transport handlers, user
// intents and async continuations are posted onto the loop as closures, so no
// reconciliation logic ever runs concurrently with itself. Continuations
// arriving after a conversation (or the engine) is closed are no-ops.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-client/internal/call"
	"github.com/fathima-sithara/chat-client/internal/models"
	"github.com/fathima-sithara/chat-client/internal/presence"
	"github.com/fathima-sithara/chat-client/internal/rest"
	"github.com/fathima-sithara/chat-client/internal/sink"
	"github.com/fathima-sithara/chat-client/internal/store"
	"github.com/fathima-sithara/chat-client/internal/transport"
	"github.com/fathima-sithara/chat-client/internal/typing"
)

var (
	ErrClosed              = errors.New("engine closed")
	ErrConversationUnknown = errors.New("conversation not open")
	ErrConversationLoading = errors.New("conversation still loading")
	ErrCallActive          = errors.New("a call is already active")
	ErrNoCall              = errors.New("no active call")
)

// Persistence is the slice of the REST API the engine needs.
type Persistence interface {
	FetchHistory(ctx context.Context, conversationID string) (*rest.History, error)
	SendMessage(ctx context.Context, conversationID, content, mediaRef string) (*models.Message, error)
}

// Options carries the engine's collaborators and tuning knobs.
type Options struct {
	Transport   transport.Transport
	Persistence Persistence
	Durable     store.Store // may be nil
	Sink        sink.Sink   // may be nil
	Log         *zap.SugaredLogger

	SelfID   string
	Username string

	TypingQuiet    time.Duration
	CallTeardown   time.Duration
	RequestTimeout time.Duration
}

type Engine struct {
	opts Options
	log  *zap.SugaredLogger

	loopCh  chan func()
	done    chan struct{}
	closing sync.Once

	// coalesced change notification for the presentation layer
	updates chan struct{}

	typing   *typing.Tracker
	presence *presence.Tracker

	// loop-owned state below; never touched off the run goroutine
	convs    map[string]*conversation
	callSess *call.Session
	callDone *time.Timer
}

func New(opts Options) (*Engine, error) {
	if opts.Transport == nil || opts.Persistence == nil {
		return nil, errors.New("engine: transport and persistence are required")
	}
	if opts.SelfID == "" {
		return nil, errors.New("engine: self id is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.TypingQuiet <= 0 {
		opts.TypingQuiet = typing.DefaultQuiet
	}
	if opts.CallTeardown <= 0 {
		opts.CallTeardown = 1500 * time.Millisecond
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	e := &Engine{
		opts:    opts,
		log:     opts.Log,
		loopCh:  make(chan func(), 256),
		done:    make(chan struct{}),
		updates: make(chan struct{}, 1),
		convs:   make(map[string]*conversation),
	}
	e.typing = typing.NewTracker(opts.TypingQuiet, func(string) { e.signalUpdate() })
	e.presence = presence.NewTracker()

	go e.run()
	if err := opts.Transport.Start(e.onTransportEvent); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// run is the single goroutine that owns every piece of mutable engine state.
func (e *Engine) run() {
	for {
		select {
		case <-e.done:
			return
		case fn := <-e.loopCh:
			fn()
		}
	}
}

// post schedules fn on the run loop. Dropped once the engine is closed.
func (e *Engine) post(fn func()) {
	select {
	case e.loopCh <- fn:
	case <-e.done:
	}
}

// do runs fn on the loop and waits for it. Returns ErrClosed if the engine
// shut down first.
func (e *Engine) do(fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}
	select {
	case e.loopCh <- wrapped:
	case <-e.done:
		return ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// Updates is a coalesced change signal: after a receive, re-read the views.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) signalUpdate() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Close tears the engine down: leaves every joined room, cancels every timer
// the engine owns and closes the transport. Idempotent.
func (e *Engine) Close() {
	e.closing.Do(func() {
		_ = e.do(func() {
			for id := range e.convs {
				e.closeConversationLocked(id)
			}
			if e.callDone != nil {
				e.callDone.Stop()
				e.callDone = nil
			}
			e.callSess = nil
		})
		close(e.done)
		e.typing.Stop()
		if err := e.opts.Transport.Close(); err != nil {
			e.log.Warnw("engine: transport close", "err", err)
		}
	})
}

// onTransportEvent is installed as the transport handler. Each event is
// applied on the run loop inside a guard: a panic in one handler is logged
// and never takes down the loop or the other handlers.
func (e *Engine) onTransportEvent(evt transport.Event) {
	e.post(func() { e.applyGuarded(evt) })
}

// applyGuarded runs one event handler on the loop behind a recover guard.
// Buffered replays go through the same path.
func (e *Engine) applyGuarded(evt transport.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("engine: event handler panic", "event", evt.Name, "panic", r)
		}
	}()
	e.handleEvent(evt)
}

func (e *Engine) emit(name string, payload any) {
	if err := e.opts.Transport.Emit(transport.NewEvent(name, payload)); err != nil {
		// transport signals are best-effort; dropped, never queued
		e.log.Debugw("engine: emit dropped", "action", name, "err", err)
	}
}

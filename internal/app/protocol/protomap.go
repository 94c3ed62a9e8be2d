/*
Package protocol contains the data model and dispatch machinery for the
line-oriented wire protocol.

This file defines Map, the protocol module registry. It performs
dependency-checked module loading, dispatches each message of an input queue
to the module registered for its key, and concatenates the replies into a
single output queue.
*/
package protocol

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"shogid/internal/pkg/errs"
	"shogid/internal/pkg/logx"
)

// Map is the registry mapping protocol keys to loaded modules. It is
// read-mostly after startup and safe for concurrent use.
type Map struct {
	mu      sync.RWMutex
	modules map[string]Module
	logger  zerolog.Logger
}

// NewMap constructs an empty module registry.
func NewMap() *Map {
	return &Map{
		modules: make(map[string]Module),
		logger:  logx.Logger().With().Str("component", "ProtocolMap").Logger(),
	}
}

// Load resolves the module's declared dependencies against already-loaded
// modules, initializes it with cfg, and registers it under its protocol key.
//
// A dependency "Name Version" is met only if a module of that Name is loaded
// with a version ≥ the required one (major digit compared first, then the
// remaining digits as an integer). If any dependency is unmet, Load fails
// with *errs.DependencyError carrying the full unmet list and nothing is
// registered. Loading onto an occupied key is a caller error.
func (p *Map) Load(module Module, cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.modules[module.Key()]; taken {
		return errs.NewError(errs.ErrModuleKeyTaken, module.Key())
	}

	var unmet []string
	for _, dependency := range module.Dependencies() {
		if !p.dependencyMetLocked(dependency) {
			unmet = append(unmet, dependency)
		}
	}
	if len(unmet) > 0 {
		return &errs.DependencyError{Module: module.Name(), Unmet: unmet}
	}

	if err := module.Initialize(cfg); err != nil {
		return &errs.ConfigError{
			Component: module.Name(),
			Key:       module.Key(),
			Reason:    err.Error(),
		}
	}

	p.modules[module.Key()] = module
	p.logger.Info().
		Str("module", module.Name()).
		Str("key", module.Key()).
		Str("version", module.Version()).
		Msg("Protocol module loaded.")
	return nil
}

func (p *Map) dependencyMetLocked(dependency string) bool {
	m := NewMessage(dependency)
	name := m.Key()
	required := m.Payload()
	if name == "" || required == "" {
		return false
	}

	for _, loaded := range p.modules {
		if loaded.Name() == name && versionAtLeast(loaded.Version(), required) {
			return true
		}
	}
	return false
}

// versionAtLeast reports whether version have satisfies requirement want.
// Versions have the shape "<major>.<minor>": the major digit is compared
// first, then the remaining digits as an integer.
func versionAtLeast(have, want string) bool {
	if len(have) < 3 || len(want) < 3 {
		return false
	}

	if have[0] != want[0] {
		return have[0] > want[0]
	}

	haveMinor, err := strconv.Atoi(have[2:])
	if err != nil {
		return false
	}
	wantMinor, err := strconv.Atoi(want[2:])
	if err != nil {
		return false
	}
	return haveMinor >= wantMinor
}

// ParseMessages dequeues every message of the input queue in order, invokes
// the module registered under each message's key, and appends the replies to
// one accumulating output queue, preserving relative order across messages.
//
// A message with an unregistered key produces a single synthesized reply
// "invalid <key>" addressed to the original sender. The entire input queue is
// always processed; no message is dropped silently.
func (p *Map) ParseMessages(messages *InputQueue) *OutputQueue {
	finalOutput := NewOutputQueue()

	for !messages.IsEmpty() {
		message := messages.Dequeue()

		var reply *OutputQueue
		if module := p.moduleFor(message.Key()); module != nil {
			reply = module.ParseMessage(message)
		} else {
			invalid := NewUserMessage(message.User(), "invalid")
			invalid.Append(message.Key())
			reply = NewOutputQueue(invalid)
		}

		finalOutput.AppendOutput(reply)
	}
	return finalOutput
}

func (p *Map) moduleFor(key string) Module {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modules[key]
}

// Unload shuts down and removes the module with the given registered name.
// It is idempotent: unloading a name that is not loaded is a no-op.
func (p *Map) Unload(name string) {
	p.mu.Lock()
	var victim Module
	for key, module := range p.modules {
		if module.Name() == name {
			victim = module
			delete(p.modules, key)
			break
		}
	}
	p.mu.Unlock()

	if victim != nil {
		victim.Shutdown()
		p.logger.Info().Str("module", name).Msg("Protocol module unloaded.")
	}
}

// Shutdown unloads every module. The order is unspecified; modules must be
// independently safe to unload. Calling Shutdown twice is harmless.
func (p *Map) Shutdown() {
	p.mu.Lock()
	victims := make([]Module, 0, len(p.modules))
	for key, module := range p.modules {
		victims = append(victims, module)
		delete(p.modules, key)
	}
	p.mu.Unlock()

	for _, module := range victims {
		module.Shutdown()
	}
}

// Loaded returns the number of registered modules.
func (p *Map) Loaded() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.modules)
}

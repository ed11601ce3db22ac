// Copyright 2026 Sage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package eventbus implements broadcast pub/sub of lifecycle and stream
// events to observers (loggers, metrics collectors, UIs), decoupling the
// reactive loop and its collaborators from any specific consumer.
package eventbus

import "sync"

// Event is one occurrence published on the bus. Kind identifies the event
// family (e.g. "step_start", "tool_call", "rate_limit_wait"); Data carries
// whatever payload that kind defines.
type Event struct {
	Kind string
	Data any
}

// Subscriber receives events published after it subscribes. Implementations
// must not block for long — the bus delivers synchronously to each
// subscriber in publish order, and a slow subscriber delays every other
// subscriber's delivery of that event.
type Subscriber func(Event)

// Bus is a broadcast pub/sub hub. The zero value is not usable; use New.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]Subscriber
	next int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]Subscriber)}
}

// Subscription identifies a registered Subscriber so it can be removed.
type Subscription struct {
	id int
	b  *Bus
}

// Unsubscribe removes the subscriber. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.subs, s.id)
}

// Subscribe registers sub to receive every subsequently published Event.
func (b *Bus) Subscribe(sub Subscriber) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = sub
	return Subscription{id: id, b: b}
}

// Publish broadcasts ev to every current subscriber. Publish takes a
// snapshot of the subscriber set under lock, then invokes subscribers
// without holding the lock, so a subscriber may itself call Subscribe or
// Unsubscribe without deadlocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s(ev)
	}
}

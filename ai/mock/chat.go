// Copyright 2025 Poiesic Systems
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


package mock

import (
	"context"
	"sync"
)

// DefaultAnswer is returned by MockChatModel when no GenerateFunc is set.
const DefaultAnswer = "I don't know based on the provided TED data."

// ChatCall records the arguments of one Generate call.
type ChatCall struct {
	System string
	User   string
}

// MockChatModel is a test double for ai.ChatModel.
type MockChatModel struct {
	// GenerateFunc is called by Generate if set.
	// If nil, DefaultAnswer is returned.
	GenerateFunc func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	calls []ChatCall
}

// NewMockChatModel creates a mock chat model with default behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Generate records the call and returns the configured answer.
func (m *MockChatModel) Generate(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{System: system, User: user})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user)
	}
	return DefaultAnswer, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent Generate arguments.
func (m *MockChatModel) LastCall() (ChatCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ChatCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and custom functions.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateFunc = nil
}

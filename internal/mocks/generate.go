// Package mocks provides mock implementations for testing the hub auth system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRecorder := mocks.NewMockLoginEventRecorder(ctrl)
//	mockRecorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for LoginEventRecorder interface from internal/ports package.
// This creates MockLoginEventRecorder with methods for all LoginEventRecorder interface methods:
// Record
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=login_event_recorder_mock.go github.com/business-hub/hub/internal/ports LoginEventRecorder

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods for all SessionStore interface methods:
// Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/business-hub/hub/internal/ports SessionStore

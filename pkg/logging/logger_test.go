package logging

import "testing"

func TestNewLoggerWithService(t *testing.T) {
	logger := NewLoggerWithService("smartvendoo")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

package controlplane

import (
	"testing"
	"time"
)

func TestServerServeAndGracefulStop(t *testing.T) {
	s, err := NewServer("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	s.PhaseStarted(ServiceEncode)
	s.PhaseStopped(ServiceEncode)

	s.Stop(time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v after Stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return within 2s of Stop")
	}
}

func TestNewServerRejectsUnparseableHost(t *testing.T) {
	if _, err := NewServer("not a host with spaces", 0); err == nil {
		t.Fatal("NewServer with an invalid host should have failed to listen")
	}
}

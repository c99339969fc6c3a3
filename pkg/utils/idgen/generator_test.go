package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestSimpleGenerator(t *testing.T) {
	gen := NewSimpleGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1 == id2 {
		t.Error("Generated IDs should be unique")
	}

	if len(id1) == 0 {
		t.Error("Generated ID should not be empty")
	}

	prefixedID := gen.GenerateWithPrefix("test")
	if !strings.HasPrefix(prefixedID, "test_") {
		t.Errorf("Expected prefixed ID to start with 'test_', got: %s", prefixedID)
	}
}

func TestUUIDGenerator(t *testing.T) {
	gen := NewUUIDGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1 == id2 {
		t.Error("Generated UUIDs should be unique")
	}

	if !IsValidUUID(id1) {
		t.Errorf("Expected a valid UUID, got: %s", id1)
	}

	prefixed := gen.GenerateWithPrefix("req")
	if !strings.HasPrefix(prefixed, "req_") {
		t.Errorf("Expected prefixed UUID to start with 'req_', got: %s", prefixed)
	}
	if !IsValidUUID(strings.TrimPrefix(prefixed, "req_")) {
		t.Errorf("Expected prefixed UUID body to be valid, got: %s", prefixed)
	}
}

func TestDomainIDs(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"task", GenerateTaskID, "task_"},
		{"publish", GeneratePublishID, "pub_"},
		{"batch", GenerateBatchID, "batch_"},
		{"request", GenerateRequestID, "req_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix) {
				t.Errorf("Expected ID to start with %q, got: %s", tt.prefix, id)
			}
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	if !IsValidUUID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("Expected canonical UUID to be valid")
	}
	if IsValidUUID("not-a-uuid") {
		t.Error("Expected malformed string to be invalid")
	}
}

func TestSimpleGenerator_Concurrent(t *testing.T) {
	gen := NewSimpleGenerator()

	const n = 100
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

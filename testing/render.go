// Package testing provides test utilities for fixture formats.
package testing

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/p256-fixtures/fixture"
)

// AssertRenderDeterminism renders m with f iterations times and asserts
// every output is byte-identical.
//
// Usage:
//
//	func TestMyFormat_Determinism(t *testing.T) {
//	    fixturetesting.AssertRenderDeterminism(t, MyFormat, material, 100)
//	}
func AssertRenderDeterminism(t *testing.T, f fixture.Format, m *fixture.Material, iterations int) {
	t.Helper()

	if iterations < 2 {
		t.Fatal("AssertRenderDeterminism requires at least 2 iterations")
	}

	first, err := f.Render(m)
	require.NoError(t, err, "%s: Render() failed on first call", f.Name())
	require.NotEmpty(t, first, "%s: Render() returned no bytes", f.Name())

	for i := 1; i < iterations; i++ {
		result, err := f.Render(m)
		require.NoError(t, err, "%s: Render() failed on iteration %d", f.Name(), i)
		if !bytes.Equal(first, result) {
			t.Fatalf("%s: Render() returned different bytes on iteration %d.\n"+
				"First:  %s\n"+
				"Got:    %s",
				f.Name(), i, first, result)
		}
	}
}

// AssertRenderValid checks that f renders m to a parseable file: JSON for
// .json formats, TOML for .toml formats. It also checks determinism.
func AssertRenderValid(t *testing.T, f fixture.Format, m *fixture.Material) {
	t.Helper()

	data, err := f.Render(m)
	require.NoError(t, err, "%s: Render() returned error", f.Name())
	require.NotEmpty(t, data, "%s: Render() returned no bytes", f.Name())

	switch f.Ext() {
	case "json":
		require.True(t, json.Valid(data), "%s: invalid JSON: %s", f.Name(), data)
	case "toml":
		_, err := toml.LoadBytes(data)
		require.NoError(t, err, "%s: invalid TOML: %s", f.Name(), data)
	default:
		t.Fatalf("%s: unknown extension %q", f.Name(), f.Ext())
	}

	AssertRenderDeterminism(t, f, m, 100)
}

// AssertRenderDeterminismConcurrent renders m with f from several goroutines
// and asserts every output matches a reference rendered up front.
//
// A passing run does not prove f is safe for concurrent use; run with -race.
func AssertRenderDeterminismConcurrent(t *testing.T, f fixture.Format, m *fixture.Material, goroutines, iterationsPerGoroutine int) {
	t.Helper()

	if goroutines < 1 {
		t.Fatal("AssertRenderDeterminismConcurrent requires at least 1 goroutine")
	}
	if iterationsPerGoroutine < 1 {
		t.Fatal("AssertRenderDeterminismConcurrent requires at least 1 iteration per goroutine")
	}

	reference, err := f.Render(m)
	require.NoError(t, err, "%s: Render() failed on reference call", f.Name())

	results := make(chan renderResult, goroutines*iterationsPerGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for i := 0; i < iterationsPerGoroutine; i++ {
				data, err := f.Render(m)
				results <- renderResult{data: data, err: err, goroutineID: goroutineID, iteration: i}
			}
		}(g)
	}
	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			t.Fatalf("%s: Render() failed in goroutine %d, iteration %d: %v",
				f.Name(), r.goroutineID, r.iteration, r.err)
		}
		if !bytes.Equal(reference, r.data) {
			t.Fatalf("%s: Render() returned different bytes in goroutine %d, iteration %d.\n"+
				"Reference: %s\n"+
				"Got:       %s",
				f.Name(), r.goroutineID, r.iteration, reference, r.data)
		}
	}
}

type renderResult struct {
	data        []byte
	err         error
	goroutineID int
	iteration   int
}

package models

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// fakeCaller serves canned responses and records traffic per path
type fakeCaller struct {
	mu         sync.Mutex
	responses  map[string]string
	calls      map[string]int
	lastParams map[string]map[string]any
}

func newFakeCaller(responses map[string]string) *fakeCaller {
	return &fakeCaller{
		responses:  responses,
		calls:      make(map[string]int),
		lastParams: make(map[string]map[string]any),
	}
}

func (f *fakeCaller) Call(_ context.Context, path string, params map[string]any) ([]byte, error) {
	f.mu.Lock()
	f.calls[path]++
	f.lastParams[path] = params
	f.mu.Unlock()

	body, ok := f.responses[path]
	if !ok {
		return nil, fmt.Errorf("no response for %s", path)
	}
	return []byte(body), nil
}

func (f *fakeCaller) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// resultsJSON builds a results listing holding just player names
func resultsJSON(names ...string) string {
	results := make([]map[string]any, 0, len(names))
	for _, name := range names {
		results = append(results, map[string]any{"PlayerName": name, "Result": 1})
	}
	body, err := json.Marshal(results)
	if err != nil {
		panic(err)
	}
	return string(body)
}

func playerNames(prefix string, n int) []string {
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("%s%d", prefix, i))
	}
	return names
}

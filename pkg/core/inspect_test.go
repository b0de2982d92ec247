package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type inspectSample struct{}

type inspectAddress struct {
	City string `json:"city"`
	Zip  int    `json:"zip"`
}

type inspectLabel string

func TestInspect(t *testing.T) {
	assert.Equal(t, "nil", Inspect(nil))
	assert.Equal(t, "[]", Inspect([]any{}))
	assert.Equal(t, `["data1", "data2"]`, Inspect([]any{"data1", "data2"}))
	assert.Equal(t, `[1, true, nil, 2.5]`, Inspect([]any{1, true, nil, 2.5}))
	assert.Equal(t, `[["a"], {"k": 1, "z": "v"}]`, Inspect([]any{[]any{"a"}, map[string]any{"z": "v", "k": 1}}))
	assert.Equal(t, `["boom"]`, Inspect([]any{errors.New("boom")}))
}

func TestInspect_TypedValuesMatchDecoded(t *testing.T) {
	tests := []struct {
		name    string
		typed   any
		decoded any
	}{
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"int slice", []int{1, 2}, []any{1, 2}},
		{"array", [2]string{"a", "b"}, []any{"a", "b"}},
		{"typed map", map[string]int{"z": 2, "k": 1}, map[string]any{"k": 1, "z": 2}},
		{"struct", inspectAddress{City: "Paris", Zip: 75001}, map[string]any{"city": "Paris", "zip": 75001}},
		{"struct pointer", &inspectAddress{City: "Paris"}, map[string]any{"city": "Paris", "zip": 0}},
		{"named string", inspectLabel("x"), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Inspect([]any{tt.decoded}), Inspect([]any{tt.typed}))
		})
	}
}

func TestInspect_TypedNils(t *testing.T) {
	var slice []string
	var m map[string]int
	var ptr *inspectAddress
	assert.Equal(t, "[nil, nil, nil]", Inspect([]any{slice, m, ptr}))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "inspectSample", TypeName(inspectSample{}))
	assert.Equal(t, "inspectSample", TypeName(&inspectSample{}))
	assert.Equal(t, "nil", TypeName(nil))
	assert.Equal(t, "map[string]int", TypeName(map[string]int{}))
}

func TestQueueOptions_Map(t *testing.T) {
	opts := QueueOptions{Queue: "default", Retry: RetryOff, Backtrace: true}
	assert.Equal(t, map[string]any{"queue": "default", "retry": RetryOff, "backtrace": true}, opts.Map())

	opts.Pool = "shard-1"
	assert.Equal(t, "shard-1", opts.Map()["pool"])
}

// Package ml holds the hand-rolled model primitives behind the demand
// forecaster: a categorical label encoder and a random forest regressor.
package ml

import (
	"encoding/json"
	"sync/atomic"
)

// LabelEncoder maps categorical string values to small integer codes.
// Codes are assigned in first-seen order during Fit. Encoding a value
// that was never fitted falls back to code 0 and records the miss, so
// a skewed prediction is traceable instead of silent.
type LabelEncoder struct {
	Classes []string

	index  map[string]int
	misses atomic.Int64
	onMiss func(value string)
}

// NewLabelEncoder returns an empty encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{index: make(map[string]int)}
}

// Fit assigns codes to each distinct value in first-seen order,
// replacing any previous fit.
func (e *LabelEncoder) Fit(values []string) {
	e.Classes = e.Classes[:0]
	e.index = make(map[string]int)
	for _, v := range values {
		if _, seen := e.index[v]; seen {
			continue
		}
		e.index[v] = len(e.Classes)
		e.Classes = append(e.Classes, v)
	}
}

// Encode returns the code for value, or 0 for unseen values.
// Safe for concurrent use once fitted.
func (e *LabelEncoder) Encode(value string) int {
	if code, ok := e.index[value]; ok {
		return code
	}

	e.misses.Add(1)
	if e.onMiss != nil {
		e.onMiss(value)
	}

	return 0
}

// Contains reports whether value was present during Fit.
func (e *LabelEncoder) Contains(value string) bool {
	_, ok := e.index[value]
	return ok
}

// Len returns the number of fitted classes.
func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

// Misses returns how many Encode calls fell back to code 0.
func (e *LabelEncoder) Misses() int64 {
	return e.misses.Load()
}

// SetMissHandler installs a callback invoked on every fallback encode.
// Must be set before the encoder is shared across goroutines.
func (e *LabelEncoder) SetMissHandler(fn func(value string)) {
	e.onMiss = fn
}

type labelEncoderJSON struct {
	Classes []string `json:"classes"`
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(labelEncoderJSON{Classes: e.Classes})
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var aux labelEncoderJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Classes = aux.Classes
	e.index = make(map[string]int, len(aux.Classes))
	for i, v := range aux.Classes {
		e.index[v] = i
	}

	return nil
}

package act

import (
	"context"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Step is a generated, executable unit. It is a pure description: Type picks
// the StepInfo that knows how to drive it and Data is that step's payload.
type Step struct {
	Type string             `json:"type"`
	Data stdjson.RawMessage `json:"data"`
}

// EncodeStep serializes a typed payload into a Step.
func EncodeStep[T any](stepType string, data T) (Step, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Step{}, fmt.Errorf("failed to encode %s step: %w", stepType, err)
	}
	return Step{Type: stepType, Data: raw}, nil
}

// DecodeStep deserializes the payload of a Step into T.
func DecodeStep[T any](step Step) (T, error) {
	var data T
	if err := json.Unmarshal(step.Data, &data); err != nil {
		return data, fmt.Errorf("failed to decode %s step: %w", step.Type, err)
	}
	return data, nil
}

// typedStep adapts a typed describe/execute pair to StepInfo.
type typedStep[T any] struct {
	stepType string
	describe func(T) string
	execute  func(ctx context.Context, ec *ExecContext, data T)
}

// NewStepInfo builds a StepInfo whose payload is decoded into T before the
// describe and execute functions see it. A payload that cannot be decoded
// fails the step.
func NewStepInfo[T any](stepType string, describe func(T) string, execute func(ctx context.Context, ec *ExecContext, data T)) StepInfo {
	return &typedStep[T]{stepType: stepType, describe: describe, execute: execute}
}

func (s *typedStep[T]) Type() string { return s.stepType }

func (s *typedStep[T]) Description(step Step) (string, error) {
	data, err := DecodeStep[T](step)
	if err != nil {
		return "", err
	}
	return s.describe(data), nil
}

func (s *typedStep[T]) Execute(ctx context.Context, ec *ExecContext) {
	data, err := DecodeStep[T](ec.Step)
	if err != nil {
		ec.Fail(err.Error())
		return
	}
	s.execute(ctx, ec, data)
}

// Package remover is the boundary to the background removal model. Every
// backend takes encoded image bytes and returns encoded PNG bytes with the
// background made transparent.
package remover

import (
	"context"
	"errors"
)

var (
	ErrEmptyInput  = errors.New("empty input image")
	ErrEmptyOutput = errors.New("background remover returned no data")
)

type Remover interface {
	Remove(ctx context.Context, input []byte) ([]byte, error)
	Name() string
}

// Func adapts a plain function to the Remover interface
type Func func(ctx context.Context, input []byte) ([]byte, error)

func (f Func) Remove(ctx context.Context, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}
	out, err := f(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmptyOutput
	}
	return out, nil
}

func (f Func) Name() string {
	return "func"
}

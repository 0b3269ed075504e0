package timeparse

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullResolverAlwaysUnresolvable(t *testing.T) {
	var r NullResolver
	_, err := r.Resolve(context.Background(), "tomorrow at 3pm", time.Now(), time.UTC)
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("err = %v, want ErrUnresolvable", err)
	}
}

func TestOpenAIResolverRejectsEmptyPhrase(t *testing.T) {
	// An empty phrase must fail before any provider call is made.
	r := &OpenAIResolver{}
	_, err := r.Resolve(context.Background(), "   ", time.Now(), time.UTC)
	if !errors.Is(err, ErrUnresolvable) {
		t.Errorf("err = %v, want ErrUnresolvable", err)
	}
}

package dialogue

import "context"

type mockSource struct {
	turns []Turn
}

// NewMockSource returns a source with a fixed conversation.
func NewMockSource(turns []Turn) Source {
	return &mockSource{turns: turns}
}

func (m *mockSource) Turns(_ context.Context) ([]Turn, error) {
	return append([]Turn(nil), m.turns...), nil
}

// Package dialogue obtains the scripted conversation the user practices
// against. The source is a black box returning ordered prompt/expected-line
// pairs.
package dialogue

import (
	"context"
	"fmt"
)

// Turn is one exchange: the coach's prompt and the line the user should say.
type Turn struct {
	Prompt           string `json:"AI"`
	ExpectedResponse string `json:"User"`
}

// Source produces the conversation for one practice session.
type Source interface {
	Turns(ctx context.Context) ([]Turn, error)
}

// FallbackTurns is the built-in conversation used when the source fails or
// returns nothing.
func FallbackTurns(userName string) []Turn {
	return []Turn{
		{Prompt: "Hello! How are you today?", ExpectedResponse: "I'm good, thank you!"},
		{Prompt: "What's your name?", ExpectedResponse: fmt.Sprintf("My name is %s.", userName)},
	}
}

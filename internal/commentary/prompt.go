// internal/commentary/prompt.go
//
// Prompt construction and the response schema sent to the model.
//
// The prompt template lives in assets/commentary.tmpl; the schema mirrors
// Commentary: {text: string, mood: enum}, both required.

package commentary

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"google.golang.org/genai"

	"github.com/robalobadob/numberguess/assets"
	"github.com/robalobadob/numberguess/internal/game"
)

const (
	maxWords    = 15
	closeWithin = 2
)

var (
	promptOnce sync.Once
	promptTmpl *template.Template
	promptErr  error
)

type promptData struct {
	Secret      int
	Guess       int
	Result      string
	Attempt     int
	MaxWords    int
	CloseWithin int
	Tone        string
}

// BuildPrompt renders the per-guess prompt.
func BuildPrompt(req Request) (string, error) {
	promptOnce.Do(func() {
		promptTmpl, promptErr = assets.CommentaryTemplate()
	})
	if promptErr != nil {
		return "", fmt.Errorf("load prompt template: %w", promptErr)
	}

	var b strings.Builder
	err := promptTmpl.Execute(&b, promptData{
		Secret:      req.Secret,
		Guess:       req.Guess,
		Result:      strings.ToUpper(string(req.Outcome)),
		Attempt:     req.Attempt,
		MaxWords:    maxWords,
		CloseWithin: closeWithin,
		Tone:        Tone(req),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// Tone picks the style directive for a guess.
func Tone(req Request) string {
	switch {
	case req.Outcome == game.OutcomeCorrect:
		return "celebratory"
	case req.Distance() <= closeWithin:
		return "encouraging or suspenseful"
	default:
		return "slightly sassy or helpful"
	}
}

// ResponseSchema is the structured-output schema for a commentary line.
func ResponseSchema() *genai.Schema {
	moods := make([]string, len(Moods))
	for i, m := range Moods {
		moods[i] = string(m)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text": {
				Type:        genai.TypeString,
				Description: "A short, witty comment about the player's guess.",
			},
			"mood": {
				Type:        genai.TypeString,
				Enum:        moods,
				Description: "The emotional tone of the response.",
			},
		},
		Required: []string{"text", "mood"},
	}
}

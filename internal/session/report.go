package session

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/parlalabs/parla-core/internal/dialogue"
	"github.com/parlalabs/parla-core/internal/score"
)

// Two categorical styles for annotated tokens, plus accents for the prompt.
var (
	promptStyle   = color.New(color.FgCyan)
	sayStyle      = color.New(color.FgYellow)
	matchStyle    = color.New(color.FgGreen)
	mismatchStyle = color.New(color.FgRed)
)

func (r *Runner) showPrompt(turn dialogue.Turn) {
	fmt.Fprintln(r.out)
	promptStyle.Fprintln(r.out, turn.Prompt)
	fmt.Fprint(r.out, "Now say: ")
	sayStyle.Fprintln(r.out, turn.ExpectedResponse)
	fmt.Fprint(r.out, "Press ENTER to start recording...")
	r.in.Scan()
}

func (r *Runner) renderReport(outcome TurnOutcome) {
	fmt.Fprintf(r.out, "\n=== PRONUNCIATION RESULTS (turn %d) ===\n", outcome.Index)
	fmt.Fprint(r.out, "Expected: ")
	promptStyle.Fprintln(r.out, outcome.Turn.ExpectedResponse)

	fmt.Fprint(r.out, "Spoken:   ")
	r.renderAnnotated(outcome.Score)
	fmt.Fprintln(r.out)

	if len(outcome.Score.Mismatches) == 0 {
		matchStyle.Fprintln(r.out, "No mistakes!")
	} else {
		for _, m := range outcome.Score.Mismatches {
			switch {
			case m.Expected == "":
				mismatchStyle.Fprintf(r.out, "extra word %q\n", m.Spoken)
			case m.Spoken == "":
				mismatchStyle.Fprintf(r.out, "missing word %q\n", m.Expected)
			default:
				mismatchStyle.Fprintf(r.out, "said %q instead of %q\n", m.Spoken, m.Expected)
			}
		}
	}

	if n := len(outcome.WordFiles); n > 0 {
		fmt.Fprintf(r.out, "Exported %d word clip(s) to %s", n, r.cfg.Segmenter.OutputDir)
		if outcome.Skipped > 0 {
			fmt.Fprintf(r.out, " (%d skipped)", outcome.Skipped)
		}
		fmt.Fprintln(r.out)
	} else {
		fmt.Fprintln(r.out, "No words detected.")
	}

	if outcome.Score.Perfect() {
		matchStyle.Fprintln(r.out, "Great! Moving to the next conversation.")
	} else {
		mismatchStyle.Fprintln(r.out, "Try again next time!")
	}
}

func (r *Runner) renderAnnotated(res score.Result) {
	for i, tok := range res.Tokens {
		if i > 0 {
			fmt.Fprint(r.out, " ")
		}
		if tok.Match {
			matchStyle.Fprint(r.out, tok.Text)
		} else {
			mismatchStyle.Fprint(r.out, tok.Text)
		}
	}
}

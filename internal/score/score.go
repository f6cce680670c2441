package score

import "strings"

// Mode selects the comparison strategy.
type Mode string

const (
	// ModeAligned compares token sequences via Levenshtein alignment so an
	// inserted or dropped word does not desynchronize the rest of the line.
	ModeAligned Mode = "aligned"
	// ModePositional is the legacy index-wise comparison truncated to the
	// shorter sequence. Tokens beyond the shorter length are ignored, so an
	// empty input yields a false "perfect" result.
	ModePositional Mode = "positional"
)

// OpKind classifies one alignment operation.
type OpKind string

const (
	OpMatch      OpKind = "match"
	OpSubstitute OpKind = "substitute"
	OpInsert     OpKind = "insert" // spoken word with no expected counterpart
	OpDelete     OpKind = "delete" // expected word that was never spoken
)

// Op is a single step of the token alignment.
type Op struct {
	Kind     OpKind
	Spoken   string
	Expected string
}

// Mismatch pairs a spoken word with the word that was expected in its place.
// Either side may be empty in aligned mode (extra or missing word).
type Mismatch struct {
	Spoken   string
	Expected string
}

// Token is one spoken word of the annotated transcript with its verdict.
type Token struct {
	Text  string
	Match bool
}

// Result is the outcome of comparing a transcription against expected text.
type Result struct {
	Mismatches []Mismatch
	Tokens     []Token
	Ops        []Op
}

// Annotated returns the annotated transcript as plain text. Styling of the
// per-token verdicts is the caller's concern.
func (r Result) Annotated() string {
	parts := make([]string, len(r.Tokens))
	for i, tok := range r.Tokens {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}

// Perfect reports whether every compared position matched.
func (r Result) Perfect() bool {
	return len(r.Mismatches) == 0
}

// Score normalizes both strings and compares their token sequences under the
// given mode. It is pure and deterministic.
func Score(transcribed, expected string, mode Mode) Result {
	spoken := strings.Fields(Normalize(transcribed))
	want := strings.Fields(Normalize(expected))
	if mode == ModePositional {
		return scorePositional(spoken, want)
	}
	return scoreAligned(spoken, want)
}

func scorePositional(spoken, want []string) Result {
	n := len(spoken)
	if len(want) < n {
		n = len(want)
	}
	var res Result
	for i := 0; i < n; i++ {
		match := spoken[i] == want[i]
		if !match {
			res.Mismatches = append(res.Mismatches, Mismatch{Spoken: spoken[i], Expected: want[i]})
		}
		res.Tokens = append(res.Tokens, Token{Text: spoken[i], Match: match})
	}
	return res
}

func scoreAligned(spoken, want []string) Result {
	ops := align(spoken, want)
	var res Result
	res.Ops = ops
	for _, op := range ops {
		switch op.Kind {
		case OpMatch:
			res.Tokens = append(res.Tokens, Token{Text: op.Spoken, Match: true})
		case OpSubstitute:
			res.Tokens = append(res.Tokens, Token{Text: op.Spoken})
			res.Mismatches = append(res.Mismatches, Mismatch{Spoken: op.Spoken, Expected: op.Expected})
		case OpInsert:
			res.Tokens = append(res.Tokens, Token{Text: op.Spoken})
			res.Mismatches = append(res.Mismatches, Mismatch{Spoken: op.Spoken})
		case OpDelete:
			res.Mismatches = append(res.Mismatches, Mismatch{Expected: op.Expected})
		}
	}
	return res
}

// align computes a minimal edit script from spoken to expected tokens.
func align(spoken, want []string) []Op {
	rows := len(spoken) + 1
	cols := len(want) + 1
	dist := make([][]int, rows)
	for i := range dist {
		dist[i] = make([]int, cols)
		dist[i][0] = i
	}
	for j := 0; j < cols; j++ {
		dist[0][j] = j
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if spoken[i-1] == want[j-1] {
				cost = 0
			}
			dist[i][j] = min3(
				dist[i-1][j-1]+cost, // match or substitute
				dist[i-1][j]+1,      // insert (extra spoken word)
				dist[i][j-1]+1,      // delete (missing expected word)
			)
		}
	}

	var ops []Op
	i, j := len(spoken), len(want)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && spoken[i-1] == want[j-1] && dist[i][j] == dist[i-1][j-1]:
			ops = append(ops, Op{Kind: OpMatch, Spoken: spoken[i-1], Expected: want[j-1]})
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			ops = append(ops, Op{Kind: OpSubstitute, Spoken: spoken[i-1], Expected: want[j-1]})
			i--
			j--
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			ops = append(ops, Op{Kind: OpInsert, Spoken: spoken[i-1]})
			i--
		default:
			ops = append(ops, Op{Kind: OpDelete, Expected: want[j-1]})
			j--
		}
	}
	reverseOps(ops)
	return ops
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func reverseOps(ops []Op) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}

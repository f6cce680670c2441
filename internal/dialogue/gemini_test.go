package dialogue

import "testing"

func TestParseTurnsPlainArray(t *testing.T) {
	turns, err := parseTurns(`[{"AI": "Hello", "User": "Hi there"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Prompt != "Hello" || turns[0].ExpectedResponse != "Hi there" {
		t.Fatalf("unexpected turn: %+v", turns[0])
	}
}

func TestParseTurnsStripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"AI\": \"Good morning\", \"User\": \"Good morning team\"}]\n```"
	turns, err := parseTurns(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 || turns[0].ExpectedResponse != "Good morning team" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestParseTurnsDropsIncompleteEntries(t *testing.T) {
	turns, err := parseTurns(`[
		{"AI": "Hello", "User": "Hi"},
		{"AI": "Orphan prompt"},
		{"User": "Orphan response"}
	]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected incomplete entries dropped, got %+v", turns)
	}
}

func TestParseTurnsRejectsGarbage(t *testing.T) {
	if _, err := parseTurns("not json at all"); err == nil {
		t.Fatal("expected parse error")
	}
}

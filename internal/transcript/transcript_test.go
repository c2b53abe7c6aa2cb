package transcript

import "testing"

func TestAppendPreservesOrder(t *testing.T) {
	t.Parallel()

	s := New()
	s.Append(Turn{Role: RoleAssistant, Text: "Hallo!"})
	s.Append(Turn{Role: RoleUser, Text: "Ich hatte einen Unfall."})
	s.Append(Turn{Role: RoleAssistant, Text: "Wie heißen Sie?"})

	got := s.All()
	if len(got) != 3 || s.Len() != 3 {
		t.Fatalf("expected 3 turns, got %d (Len=%d)", len(got), s.Len())
	}
	want := []string{"Hallo!", "Ich hatte einen Unfall.", "Wie heißen Sie?"}
	for i, turn := range got {
		if turn.Text != want[i] {
			t.Errorf("turn %d: expected %q, got %q", i, want[i], turn.Text)
		}
		if turn.At.IsZero() {
			t.Errorf("turn %d: expected timestamp to be set", i)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	s.Append(Turn{Role: RoleUser, Text: "original"})

	snapshot := s.All()
	snapshot[0].Text = "mutated"

	if got := s.All()[0].Text; got != "original" {
		t.Fatalf("stored turn was mutated through snapshot: %q", got)
	}
}

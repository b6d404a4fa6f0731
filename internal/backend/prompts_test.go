package backend

import (
	"strings"
	"testing"
)

func TestNarrativeMessages(t *testing.T) {
	msgs := NarrativeMessages(NarrativeContext{
		Scene:        "The conservatory, midnight.",
		Players:      []string{"Ada", "Bram"},
		Clues:        []string{"muddy boots"},
		Events:       []string{"Ada accuses Bram"},
		Instructions: "Build tension.",
	})
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("unexpected shape: %+v", msgs)
	}
	body := msgs[1].Content
	for _, want := range []string{"### SCENE", "conservatory", "- Ada", "- muddy boots", "### RECENT EVENTS", "Build tension."} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in %q", want, body)
		}
	}
	if strings.Contains(body, "### CLUES\n\n") {
		t.Fatalf("empty section rendered")
	}
}

func TestRenderContext_OmitsEmptySections(t *testing.T) {
	if got := renderContext(NarrativeContext{Scene: "Hall"}); got != "### SCENE\nHall" {
		t.Fatalf("got %q", got)
	}
}

func TestFlattenMessages(t *testing.T) {
	got := flattenMessages([]Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}})
	if got != "system: s\nuser: u\nassistant:" {
		t.Fatalf("got %q", got)
	}
}

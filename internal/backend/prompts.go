package backend

import (
	"strings"
)

const narratorSystem = `You are the narrator of a multiplayer murder mystery.
Write in second person plural, present tense, two to four sentences.
Never reveal the culprit unless the instructions say the case is closed.`

const summarySystem = `Summarize the following game transcript for the narrator's memory.
Keep names, clues and accusations. At most five sentences.`

const closingSystem = `You are the narrator of a multiplayer murder mystery.
The case is closed. Reveal what happened, name the culprit and explain how
the clues fit together, in one short paragraph.`

// NarrativeMessages builds the chat for the next narrative beat.
func NarrativeMessages(nc NarrativeContext) []Message {
	return []Message{
		{Role: RoleSystem, Content: narratorSystem},
		{Role: RoleUser, Content: renderContext(nc)},
	}
}

// SummaryMessages builds the chat that condenses text.
func SummaryMessages(text string) []Message {
	return []Message{
		{Role: RoleSystem, Content: summarySystem},
		{Role: RoleUser, Content: text},
	}
}

// ClosingMessages builds the chat for the end-of-game reveal.
func ClosingMessages(nc NarrativeContext) []Message {
	return []Message{
		{Role: RoleSystem, Content: closingSystem},
		{Role: RoleUser, Content: renderContext(nc)},
	}
}

func renderContext(nc NarrativeContext) string {
	var b strings.Builder
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("### ")
		b.WriteString(title)
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(l))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if s := strings.TrimSpace(nc.Scene); s != "" {
		b.WriteString("### SCENE\n")
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	section("PLAYERS", nc.Players)
	section("CLUES", nc.Clues)
	section("RECENT EVENTS", nc.Events)
	if s := strings.TrimSpace(nc.Instructions); s != "" {
		b.WriteString("### INSTRUCTIONS\n")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// flattenMessages renders a chat as a single completion prompt for runtimes
// without a chat template.
func flattenMessages(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString(RoleAssistant)
	b.WriteString(":")
	return b.String()
}

package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchRedFlag(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"cannot breathe", "i can't breathe and my jaw is swollen", true},
		{"trouble breathing", "having trouble breathing since this morning", true},
		{"breathing trouble reversed", "some breathing trouble started an hour ago", true},
		{"uncontrolled bleeding", "uncontrolled bleeding from the socket", true},
		{"uncontrollable bleed", "the bleeding is uncontrollable", true},
		{"heavy oral bleeding", "heavy bleeding from my gum", true},
		{"swelling near airway", "swelling spreading to my throat", true},
		{"swelling near eye", "swelling up to my eye", true},
		{"jaw fracture", "i think my jaw is broken jaw fracture maybe", true},
		{"anaphylaxis", "signs of anaphylaxis after the injection", true},
		{"allergic reaction", "i am having an allergic reaction", true},
		{"chest pain", "tooth pain and now chest pain", true},
		{"consciousness", "my son passed out after the fall", true},
		{"difficulty swallowing", "i have difficulty swallowing", true},
		{"cannot swallow", "i can't swallow anything", true},
		{"avulsed tooth", "tooth knocked out during the game", true},
		{"avulsed reversed", "knocked out tooth on the pavement", true},
		{"severe trauma", "severe trauma to the mouth", true},

		// Explicit negative contexts must not escalate.
		{"no difficulty swallowing", "swollen cheek but no difficulty swallowing", false},
		{"without difficulty swallowing", "pain without difficulty swallowing", false},
		{"no trouble breathing", "impacted wisdom tooth, no trouble breathing", false},
		{"no breathing trouble", "swelling on the left, no breathing trouble at all", false},
		{"denies breathing problems", "patient denies any breathing problems", false},

		// Ordinary clinical text passes through.
		{"plain toothache", "my upper right molar aches when i chew", false},
		{"plain swelling", "mild swelling near the wisdom tooth", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRedFlag(strings.ToLower(tt.text))
			if tt.want {
				assert.NotEmpty(t, got, "expected red flag in %q", tt.text)
			} else {
				assert.Empty(t, got, "unexpected red flag %q in %q", got, tt.text)
			}
		})
	}
}

func TestMatchRedFlagPositionInsensitive(t *testing.T) {
	assert.NotEmpty(t, MatchRedFlag("by the way, earlier today there was uncontrolled bleeding after flossing"))
}

func TestMatchConversational(t *testing.T) {
	tests := []struct {
		text string
		want ActionType
	}{
		{"hi", ActionGreeting},
		{"hello!", ActionGreeting},
		{"good morning", ActionGreeting},
		{"thanks", ActionGreeting},
		{"ok", ActionGreeting},
		{"who are you", ActionSmallTalk},
		{"what can you do?", ActionSmallTalk},
		{"can you help", ActionSmallTalk},
		{"my tooth hurts badly", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := MatchConversational(tt.text, len(strings.Fields(tt.text)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchConversationalSkipsLongMessages(t *testing.T) {
	long := "hi i have had a terrible toothache in my lower left molar for three days now"
	assert.Equal(t, ActionType(""), MatchConversational(long, len(strings.Fields(long))))
}

func TestScanForbiddenOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"diagnosis phrasing", "you have an abscess forming", true},
		{"diagnosis term", "consistent with pulpitis", true},
		{"treatment recommendation", "you need a root canal as soon as possible", true},
		{"recommendation phrasing", "i recommend an extraction", true},
		{"drug name", "take amoxicillin 500 mg three times daily", true},
		{"dosage", "take 400 mg every six hours", true},
		{"factual restatement", "patient reports severe throbbing pain in the upper right molar for three days", false},
		{"feature summary", "reported thermal sensitivity and biting pain, no swelling", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons := ScanForbiddenOutput(strings.ToLower(tt.text))
			if tt.want {
				assert.NotEmpty(t, reasons)
			} else {
				assert.Empty(t, reasons)
			}
		})
	}
}

package cache

import (
	"testing"

	"github.com/futig/diagram-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestKeyIgnoresWhitespaceAndCase(t *testing.T) {
	a := &entity.GenerationRequest{Instruction: "Draw   3 Boxes"}
	b := &entity.GenerationRequest{Instruction: "  draw 3 boxes  "}

	assert.Equal(t, Key(a), Key(b))
}

func TestKeyIgnoresFileOrderAndContent(t *testing.T) {
	a := &entity.GenerationRequest{
		Instruction: "draw",
		Files: []entity.FileBlock{
			{Name: "x.txt", Size: 10, Text: "one"},
			{Name: "y.txt", Size: 20, Text: "two"},
		},
	}
	b := &entity.GenerationRequest{
		Instruction: "draw",
		Files: []entity.FileBlock{
			{Name: "y.txt", Size: 20, Text: "completely different"},
			{Name: "x.txt", Size: 10, Text: "content"},
		},
	}

	assert.Equal(t, Key(a), Key(b), "file identity, not content, feeds the key")
}

func TestKeyChangesWithFileIdentity(t *testing.T) {
	a := &entity.GenerationRequest{
		Instruction: "draw",
		Files:       []entity.FileBlock{{Name: "x.txt", Size: 10}},
	}
	b := &entity.GenerationRequest{
		Instruction: "draw",
		Files:       []entity.FileBlock{{Name: "x.txt", Size: 11}},
	}

	assert.NotEqual(t, Key(a), Key(b))
}

func TestKeyChangesWithConversationLength(t *testing.T) {
	a := &entity.GenerationRequest{Instruction: "draw"}
	b := &entity.GenerationRequest{
		Instruction:  "draw",
		Conversation: []entity.ConversationTurn{{Role: "user", Text: "hi"}},
	}

	assert.NotEqual(t, Key(a), Key(b))
}

func TestKeyChangesWithPriorArtifactCount(t *testing.T) {
	a := &entity.GenerationRequest{Instruction: "draw"}
	b := &entity.GenerationRequest{Instruction: "draw", PriorArtifacts: []string{"<html></html>"}}

	assert.NotEqual(t, Key(a), Key(b))
}

package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHTML(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html><body></body></html>"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare document", in: doc, want: doc},
		{name: "fenced document", in: "```html\n" + doc + "\n```", want: doc},
		{name: "fence with prose around it", in: "Here you go:\n```html\n" + doc + "\n```\nLet me know!", want: doc},
		{name: "unclosed fence", in: "```html\n" + doc, want: doc},
		{name: "prose before doctype", in: "Sure, here is the diagram:\n\n" + doc, want: doc},
		{name: "lowercase doctype", in: "intro text <!doctype html><html></html>", want: "<!doctype html><html></html>"},
		{name: "no recognizable document", in: "plain answer", want: "plain answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractHTML(tt.in))
		})
	}
}

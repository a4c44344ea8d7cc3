package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoicesAreSorted(t *testing.T) {
	for name, choices := range map[string][]Choice{
		"languages": LanguageChoices,
		"styles":    StyleChoices,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, sort.SliceIsSorted(choices, func(i, j int) bool {
				return choices[i].Value < choices[j].Value
			}))
		})
	}
}

func TestDefaultsAreValidChoices(t *testing.T) {
	assert.True(t, IsLanguage(DefaultLanguage))
	assert.True(t, IsStyle(DefaultStyle))
}

func TestIsLanguage(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"python", true},
		{"go", true},
		{"Python", false},
		{"", false},
		{"brainfudge", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLanguage(tt.value))
		})
	}
}

func TestIsStyle(t *testing.T) {
	assert.True(t, IsStyle("monokai"))
	assert.False(t, IsStyle("friedly"))
	assert.False(t, IsStyle(""))
}

func TestNewSnippet_Defaults(t *testing.T) {
	s := NewSnippet()
	assert.Equal(t, "", s.Title)
	assert.False(t, s.Linenos)
	assert.Equal(t, "python", s.Language)
	assert.Equal(t, "friendly", s.Style)
}

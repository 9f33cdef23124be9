package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple title", input: "Hello World", expected: "hello-world"},
		{name: "punctuation", input: "Hello, World!", expected: "hello-world"},
		{name: "accents", input: "Café résumé", expected: "cafe-resume"},
		{name: "repeated spaces", input: "Hello   World", expected: "hello-world"},
		{name: "spaced hyphen", input: "Hello - World", expected: "hello-world"},
		{name: "tabs and padding", input: "\t Solar  pumps \n", expected: "solar-pumps"},
		{name: "comma between words", input: "Hello,World", expected: "hello-world"},
		{name: "apostrophe", input: "Farmer's Guide", expected: "farmer-s-guide"},
		{name: "version number", input: "Version 2.0", expected: "version-2-0"},
		{name: "slash", input: "A/B testing", expected: "a-b-testing"},
		{name: "mixed run", input: "rice--&--wheat", expected: "rice-wheat"},
		{name: "only symbols", input: "!@#$%^&*()", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("hello-world"))
	assert.True(t, IsValidSlug("page-123"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("-leading"))
	assert.False(t, IsValidSlug("double--dash"))
	assert.False(t, IsValidSlug("Upper"))
}

package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputType_String(t *testing.T) {
	assert.Equal(t, "text", InputText.String())
	assert.Equal(t, "image", InputImage.String())
	assert.Equal(t, "InputType(9)", InputType(9).String())
}

func TestParseInputType(t *testing.T) {
	got, err := ParseInputType("Text")
	require.NoError(t, err)
	assert.Equal(t, InputText, got)

	got, err = ParseInputType(" image ")
	require.NoError(t, err)
	assert.Equal(t, InputImage, got)

	_, err = ParseInputType("audio")
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestTextsOf(t *testing.T) {
	texts, err := TextsOf(Texts{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, texts)

	_, err = TextsOf(Texts{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = TextsOf(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = TextsOf(Texts{"ok", "caf\xe9"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "item 1")
}

func TestCatalog(t *testing.T) {
	c := Catalog{
		{ID: 0, Name: "a", Inputs: []InputType{InputText}},
		{ID: 4, Name: "b", Inputs: []InputType{InputText, InputImage}},
	}

	m, ok := c.ByID(4)
	require.True(t, ok)
	assert.Equal(t, "b", m.Name)

	_, ok = c.ByName("A")
	assert.False(t, ok)

	assert.True(t, c.Supports(4, InputImage))
	assert.False(t, c.Supports(0, InputImage))
	assert.False(t, c.Supports(1, InputText))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBlockVariants(t *testing.T) {
	p, err := DecodeBlock(BlockHeading, []byte(`{"level":2,"text":"Intro"}`))
	require.NoError(t, err)
	assert.Equal(t, HeadingBlock{Level: 2, Text: "Intro"}, p)

	p, err = DecodeBlock(BlockImage, []byte(`{"src":"https://x/y.png","alt":"y"}`))
	require.NoError(t, err)
	assert.Equal(t, BlockImage, p.Kind())

	_, err = DecodeBlock(BlockParagraph, []byte(`{"text":"  "}`))
	require.Error(t, err)

	_, err = DecodeBlock("quiz", []byte(`{}`))
	require.Error(t, err)
}

func TestPracticeRegexMustCompile(t *testing.T) {
	_, err := DecodeBlock(BlockPractice, []byte(`{"description":"d","validation_regex":"(["}`))
	require.Error(t, err)
}

func TestPracticePatternAnchorsAtStart(t *testing.T) {
	re, err := PracticeBlock{ValidationRegex: `print\(.*\)`}.Pattern()
	require.NoError(t, err)

	assert.True(t, re.MatchString(`print("hi")`))
	assert.True(t, re.MatchString(`print("hi") # trailing`))
	assert.False(t, re.MatchString(`x = print("hi")`))

	re, err = PracticeBlock{ValidationRegex: `a|b`}.Pattern()
	require.NoError(t, err)
	assert.False(t, re.MatchString("cb"))

	re, err = PracticeBlock{}.Pattern()
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestNewContentBlockRoundTrip(t *testing.T) {
	b, err := NewContentBlock(3, 1, PracticeBlock{Description: "say hi", ValidationRegex: "hi"})
	require.NoError(t, err)
	assert.Equal(t, BlockPractice, b.Type)
	assert.Equal(t, uint(3), b.LessonID)

	p, err := b.Practice()
	require.NoError(t, err)
	assert.Equal(t, "hi", p.ValidationRegex)

	hidden, err := b.ForStudent().Practice()
	require.NoError(t, err)
	assert.Empty(t, hidden.ValidationRegex)
	assert.Equal(t, "say hi", hidden.Description)
}

func TestPracticeOnNonPracticeBlock(t *testing.T) {
	b, err := NewContentBlock(1, 0, ParagraphBlock{Text: "x"})
	require.NoError(t, err)
	_, err = b.Practice()
	require.Error(t, err)
	assert.Equal(t, b, b.ForStudent())
}

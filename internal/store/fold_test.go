package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldLowercasesASCII(t *testing.T) {
	assert.Equal(t, "alpha.txt", Fold("ALPHA.TXT"))
}

func TestFoldHandlesNonASCII(t *testing.T) {
	assert.Equal(t, Fold("申告書.pdf"), Fold("申告書.PDF"))
}

func TestBigramsOverlappingWindows(t *testing.T) {
	assert.Equal(t, []string{"al", "lp", "ph", "ha"}, bigrams("alpha"))
}

func TestBigramsShortInputIsNil(t *testing.T) {
	assert.Nil(t, bigrams("a"))
	assert.Nil(t, bigrams(""))
}

func TestBigramsRuneAware(t *testing.T) {
	grams := bigrams("申告書")
	assert.Equal(t, []string{"申告", "告書"}, grams)
}

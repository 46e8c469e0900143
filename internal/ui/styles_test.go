package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStyles_NoColorIsPlain(t *testing.T) {
	// Given: no-color styles
	styles := GetStyles(true)

	// When: rendering text with each style
	// Then: text passes through unchanged
	for _, s := range []string{
		styles.Header.Render("暴击"),
		styles.Term.Render("暴击"),
		styles.Scope.Render("暴击"),
		styles.Path.Render("暴击"),
	} {
		assert.Equal(t, "暴击", s)
	}
}

func TestGetStyles_ColorSetsForeground(t *testing.T) {
	// Given: default styles
	styles := GetStyles(false)

	// Then: accent colors are set
	assert.Equal(t, ColorAccent, colorOf(styles.Term))
	assert.Equal(t, ColorAccentDm, colorOf(styles.Scope))
	assert.True(t, styles.Header.GetBold())
}

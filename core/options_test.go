package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestValidateReportsEveryField(t *testing.T) {
	o := DefaultOptions()
	o.HeadingStyle = "underline"
	o.BulletListMarker = "o"
	o.Fence = "'''"
	o.BaseURL = "example.com/docs"

	err := o.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"heading_style", "bullet_list_marker", "fence", "base_url"} {
		assert.Contains(t, msg, want)
	}
	assert.NotContains(t, msg, "link_style")
}

func TestGuardRecoversPanics(t *testing.T) {
	err := Guard(func() error { panic("boom") })
	require.Error(t, err)
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.Value)

	sentinel := errors.New("inner")
	err = Guard(func() error { panic(sentinel) })
	assert.ErrorIs(t, err, sentinel)

	assert.NoError(t, Guard(func() error { return nil }))
}

func TestSanitizedResetsInvalidFields(t *testing.T) {
	o := DefaultOptions()
	o.HeadingStyle = HeadingSetext
	o.Fence = "'''"
	o.EmDelimiter = "~"
	o.BaseURL = "not a url"

	got := o.Sanitized()
	require.NoError(t, got.Validate())
	assert.Equal(t, HeadingSetext, got.HeadingStyle)
	assert.Equal(t, "```", got.Fence)
	assert.Equal(t, "*", got.EmDelimiter)
	assert.Empty(t, got.BaseURL)
	assert.Equal(t, "'''", o.Fence, "the receiver is not modified")
}

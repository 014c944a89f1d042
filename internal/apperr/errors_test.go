package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	ee := New(errors.New("boom")).Build()
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategorySystem, ee.Category)
	assert.Equal(t, KindInternal, KindOf(ee))
}

func TestBuildWithFields(t *testing.T) {
	ee := Newf("stem %q missing", "vocals").
		Component(ComponentDecoder).
		Category(CategoryDecode).
		Kind(KindFileNotFound).
		FileContext("/tmp/vocals.wav", 1024).
		Priority(PriorityHigh).
		Build()

	assert.Equal(t, ComponentDecoder, ee.Component)
	assert.Equal(t, CategoryDecode, ee.Category)
	assert.Equal(t, KindFileNotFound, KindOf(ee))
	assert.Equal(t, PriorityHigh, ee.Priority)
	assert.Equal(t, "/tmp/vocals.wav", ee.GetContext()["file_path"])
}

func TestAsEnhancedUnwraps(t *testing.T) {
	inner := New(errors.New("disk full")).Component(ComponentDatastore).Category(CategoryStore).Kind(KindIoError).Build()
	wrapped := errors.Join(errors.New("save failed"), inner)

	ee, ok := AsEnhanced(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindIoError, KindOf(ee))
}

func TestInvalidPriorityIgnored(t *testing.T) {
	ee := New(errors.New("x")).Priority("urgent!!").Build()
	assert.Empty(t, ee.Priority)
}

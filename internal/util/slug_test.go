package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "classic-white-tee", Slugify("  Classic White Tee "))
	assert.Equal(t, "hoodie-2024", Slugify("Hoodie -- 2024!"))
	assert.Equal(t, "tees-tops", Slugify("Tees & Tops"))
	assert.Equal(t, "", Slugify("!!!"))
}

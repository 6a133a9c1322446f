// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/inkwell/pkg/pointer"
)

func TestFallback(t *testing.T) {
	assert.Equal(t, "kept", pointer.Fallback(nil, "kept"))
	assert.Equal(t, "", pointer.Fallback(pointer.To(""), "kept"))
	assert.False(t, pointer.Fallback(pointer.To(false), true))
}

func TestTo_Copies(t *testing.T) {
	value := 3
	ptr := pointer.To(value)
	value = 4

	assert.Equal(t, 3, *ptr)
}

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeData(t *testing.T) {
	assert.Equal(t, "[3] age=5", EncodeData(3, "age=5"))
	assert.Equal(t, "[3]", EncodeData(3, ""))
}

func TestEncodeProgress(t *testing.T) {
	assert.Equal(t, "[progress 7]", EncodeProgress(7))
}

func TestEncodeEnd(t *testing.T) {
	assert.Equal(t, "[end 3]", EncodeEnd(3))
}

func TestEncodeError(t *testing.T) {
	assert.Equal(t, "[error] boom", EncodeError("boom"))
}

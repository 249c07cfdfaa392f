package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVerbose(t *testing.T) {
	assert.False(t, isVerbose(nil))
	assert.False(t, isVerbose([]string{"-test.run=TestBank", "-test.v=false"}))
	assert.True(t, isVerbose([]string{"-test.v"}))
	assert.True(t, isVerbose([]string{"-test.count=1", "-test.v=true"}))
	assert.True(t, isVerbose([]string{"-test.v=test2json"}))
}

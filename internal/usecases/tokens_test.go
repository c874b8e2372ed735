package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockedToken(t *testing.T) {
	assert.True(t, isBlockedToken("0x06f69a40c33c5a4cd038bbe1da689d4d636ec448", "WHATEVER"))
	assert.True(t, isBlockedToken("0x20fb684bfc1abaabd3acec5712f2aa30bd494df7", ""))
	assert.True(t, isBlockedToken("0x0000000000000000000000000000000000000001", "USDC"))
	assert.True(t, isBlockedToken("0x0000000000000000000000000000000000000001", "usdt"))
	assert.False(t, isBlockedToken("0x0000000000000000000000000000000000000001", "PEPU"))
}

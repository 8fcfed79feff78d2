package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasMapSubstitutesLeadingWordCaseInsensitively(t *testing.T) {
	a := AliasMap{"ls": "dir"}
	assert.Equal(t, "dir -p:3", a.Apply("LS -p:3"))
}

func TestAliasMapPassesThroughUnmatched(t *testing.T) {
	a := AliasMap{"ls": "dir"}
	assert.Equal(t, "progload -p:1", a.Apply("progload -p:1"))
}

func TestAliasMapHandlesBareWordWithNoArgs(t *testing.T) {
	a := AliasMap{"ls": "dir"}
	assert.Equal(t, "dir", a.Apply("ls"))
}

func TestAliasMapEmptyMapIsIdentity(t *testing.T) {
	var a AliasMap
	assert.Equal(t, "whatever", a.Apply("whatever"))
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	for _, test := range []struct {
		line string
		want []string
	}{
		{"", nil},
		{"progres", []string{"progres"}},
		{"config set foo bar", []string{"config", "set", "foo", "bar"}},
		{`addressbook lookup "front lobby"`, []string{"addressbook", "lookup", "front lobby"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
	} {
		got := splitArgs(test.line)
		assert.Equal(t, test.want, got, test.line)
	}
}

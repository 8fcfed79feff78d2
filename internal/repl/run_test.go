package repl

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEscapeRecognizesAltX(t *testing.T) {
	for _, seq := range []string{"x", "X"} {
		r := bufio.NewReader(strings.NewReader(seq))
		key := decodeEscape(r)
		assert.Equal(t, KeyAltX, key.Kind, seq)
	}
}

func TestDecodeEscapeRecognizesArrowsAndShiftModifier(t *testing.T) {
	for _, test := range []struct {
		seq   string
		kind  KeyKind
		shift bool
	}{
		{"[A", KeyUp, false},
		{"[B", KeyDown, false},
		{"[C", KeyRight, false},
		{"[D", KeyLeft, false},
		{"[H", KeyHome, false},
		{"[F", KeyEnd, false},
		{"[1;2C", KeyRight, true},
		{"[1;2D", KeyLeft, true},
		{"[3~", KeyDelete, false},
	} {
		r := bufio.NewReader(strings.NewReader(test.seq))
		key := decodeEscape(r)
		assert.Equal(t, test.kind, key.Kind, test.seq)
		assert.Equal(t, test.shift, key.Shift, test.seq)
	}
}

func TestDecodeEscapeBareEscIsKeyEsc(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))
	key := decodeEscape(r)
	assert.Equal(t, KeyEsc, key.Kind)
}

func TestDecodeEscapeUnrecognizedSequenceIsKeyEsc(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("[Z"))
	key := decodeEscape(r)
	assert.Equal(t, KeyEsc, key.Kind)
}

func TestDecodeKeysTranslatesControlAndAltXBytes(t *testing.T) {
	input := "\x1bx\x18\t\x7f\r"
	r := bufio.NewReader(strings.NewReader(input))
	keyCh := make(chan Key, 8)
	errCh := make(chan error, 1)
	go decodeKeys(r, keyCh, errCh)

	want := []KeyKind{KeyAltX, KeyCtrlX, KeyTab, KeyBackspace, KeyEnter}
	for _, k := range want {
		select {
		case got := <-keyCh:
			assert.Equal(t, k, got.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for key %v", k)
		}
	}
}

func TestDecodeKeysDecodesMultiByteRune(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("é"))
	keyCh := make(chan Key, 1)
	errCh := make(chan error, 1)
	go decodeKeys(r, keyCh, errCh)

	select {
	case got := <-keyCh:
		require.Equal(t, KeyRune, got.Kind)
		assert.Equal(t, 'é', got.Rune)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decoded rune")
	}
}

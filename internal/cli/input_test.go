package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, terminal bool, pw []byte, err error) {
	t.Helper()
	origIs, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return terminal }
	readPassword = func(int) ([]byte, error) { return pw, err }
	t.Cleanup(func() { isTerminal, readPassword = origIs, origRead })
}

func TestGetSimpleText(t *testing.T) {
	t.Run("trims line", func(t *testing.T) {
		var out bytes.Buffer
		got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  ada@example.com \nrest\n")), "Email", &out)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", got)
		assert.Equal(t, "Email\n> ", out.String())
	})

	t.Run("partial line at EOF", func(t *testing.T) {
		got, err := GetSimpleText(bufio.NewReader(strings.NewReader("last")), "x", io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "last", got)
	})

	t.Run("empty EOF", func(t *testing.T) {
		_, err := GetSimpleText(bufio.NewReader(strings.NewReader("")), "x", io.Discard)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestGetPassword(t *testing.T) {
	t.Run("terminal", func(t *testing.T) {
		stubTerminal(t, true, []byte("Secret123"), nil)
		var out bytes.Buffer
		pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), "Password", &out)
		require.NoError(t, err)
		assert.Equal(t, "Secret123", string(pw))
		assert.Equal(t, "Password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		stubTerminal(t, true, nil, errors.New("no tty"))
		_, err := GetPassword(bufio.NewReader(strings.NewReader("")), "Password", io.Discard)
		assert.EqualError(t, err, "no tty")
	})

	t.Run("piped input keeps spaces", func(t *testing.T) {
		stubTerminal(t, false, nil, nil)
		pw, err := GetPassword(bufio.NewReader(strings.NewReader(" pass word \r\n")), "Password", io.Discard)
		require.NoError(t, err)
		assert.Equal(t, " pass word ", string(pw))
	})
}

func TestGetYesNo(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "maybe\n": false} {
		got, err := GetYesNo(bufio.NewReader(strings.NewReader(in)), "Remember me?", io.Discard)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
}

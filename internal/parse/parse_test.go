package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassificationTotality(t *testing.T) {
	cases := []string{"", "   ", "/help", "hello @a.txt", "/", "/   cmd", "@"}
	for _, c := range cases {
		r := Parse(c)
		require.Contains(t, []Kind{Empty, Command, FreeText}, r.Kind)
	}
}

func TestSlashAloneIsFreeText(t *testing.T) {
	r := Parse("/")
	require.Equal(t, FreeText, r.Kind)
	require.Equal(t, "/", r.Text)
}

func TestSlashFollowedByWhitespaceIsFreeText(t *testing.T) {
	r := Parse("/   cmd")
	require.Equal(t, FreeText, r.Kind)
}

func TestSimpleCommand(t *testing.T) {
	r := Parse("/help")
	require.Equal(t, Command, r.Kind)
	require.Equal(t, "help", r.Name)
	require.Equal(t, "", r.Args)
}

func TestCommandPreservesLeadingWhitespaceInArgs(t *testing.T) {
	r := Parse("/help   a b")
	require.Equal(t, Command, r.Kind)
	require.Equal(t, "help", r.Name)
	require.Equal(t, "  a b", r.Args)
}

func TestSlashRoundTrip(t *testing.T) {
	names := []string{"help", "quit", "x", "Agent-Stats"}
	args := []string{"", "a", "  two  words", "trailing "}
	for _, n := range names {
		for _, a := range args {
			r := Parse("/" + n + " " + a)
			require.Equal(t, n, r.Name)
			require.Equal(t, a, r.Args)
		}
	}
}

func TestEmptyWhitespaceOnly(t *testing.T) {
	require.Equal(t, Empty, Parse("").Kind)
	require.Equal(t, Empty, Parse("   \t\n").Kind)
}

func TestMentionOrder(t *testing.T) {
	r := Parse("look at @b.go then @a.go and @b.go again")
	require.Equal(t, FreeText, r.Kind)
	require.Equal(t, []string{"b.go", "a.go", "b.go"}, r.Mentions)
}

func TestLoneAtIsLiteral(t *testing.T) {
	r := Parse("just an @ sign")
	require.Nil(t, r.Mentions)
}

func TestAtEndOfInputIsLiteral(t *testing.T) {
	r := Parse("trailing at@")
	require.Nil(t, r.Mentions)
}

func TestAtFollowedByWhitespaceIsLiteral(t *testing.T) {
	r := Parse("hey @ you")
	require.Nil(t, r.Mentions)
}

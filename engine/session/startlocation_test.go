package session

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestResolveStartLocation(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"", "last"},
		{"last", "last"},
		{"LAST", "last"},
		{"home", "home"},
		{"Home", "home"},
		{"Sandbox", "uri:Sandbox&128&128&0"},
		{"Sandbox/64/65/25", "uri:Sandbox&64&65&25"},
		{"Sandbox/64/65", "last"},       // wrong part count
		{"Sandbox/a/65/25", "last"},     // malformed x
		{"Sandbox/64/b/25", "last"},     // malformed y
		{"Sandbox/64/65/c", "last"},     // malformed z
		{"  home  ", "home"},            // surrounding whitespace
		{"Sandbox/1/2/3/4", "last"},     // too many parts
	}
	for _, c := range cases {
		assert.Equal(t, c.out, ResolveStartLocation(c.in))
	}
}

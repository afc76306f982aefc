package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLabel_Strategies(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		want   string
		found  bool
	}{
		{
			name:   "for attribute anywhere on the page",
			markup: `<div><input id="x" type="radio"></div><p><label for="x">a. Paris</label></p>`,
			want:   "Paris", found: true,
		},
		{
			name:   "wrapping label without input text",
			markup: `<label><input id="x" type="radio"> (b) Cat</label>`,
			want:   "Cat", found: true,
		},
		{
			name:   "label among parent's children",
			markup: `<div><input id="x" type="radio"><span><label>c) Dog</label></span></div>`,
			want:   "Dog", found: true,
		},
		{
			name:   "enclosing list item text",
			markup: `<ul><li><input id="x" type="radio"> Fish <em>food</em></li></ul>`,
			want:   "Fishfood", found: true,
		},
		{
			name:   "next text sibling",
			markup: `<p><input id="x" type="radio">  Bird  <b>ignored</b></p>`,
			want:   "Bird", found: true,
		},
		{
			name:   "empty for label falls through",
			markup: `<label for="x"> </label><table><tr><td><input id="x" type="radio">Owl</td></tr></table>`,
			want:   "Owl", found: true,
		},
		{
			name:   "grading noise removed",
			markup: `<input id="x" type="radio"><label for="x">Rome Not yet answered Marked out of 1.00</label>`,
			want:   "Rome", found: true,
		},
		{
			name:   "nothing survives cleaning",
			markup: `<input id="x" type="radio"><label for="x">d.</label>`,
			found:  false,
		},
		{
			name:   "no label at all",
			markup: `<p><input id="x" type="radio"></p>`,
			found:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, control := parseNode(t, "<html><body>"+tc.markup+"</body></html>", "#x")
			got, ok := p.resolveLabel(control)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCleanLabel(t *testing.T) {
	assert.Equal(t, "Paris", cleanLabel("A. Paris"))
	assert.Equal(t, "Paris", cleanLabel("(a) Paris"))
	assert.Equal(t, "Paris", cleanLabel("1) Paris"))
	assert.Equal(t, "10. Paris", cleanLabel("10. Paris"))
	assert.Equal(t, "Paris", cleanLabel("Paris Marked out of 2.00"))
}

package namekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Tony Stark", "tony-stark"},
		{"  Tony  STARK! ", "tony-stark"},
		{"Wayne Foundation.", "wayne-foundation"},
		{"Ollivanders Wand-Shop", "ollivanders-wand-shop"},
		{"Café Müller", "cafe-muller"},
		{"   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"stark", "expo"}, Tokens(Normalize("Stark Expo")))
	assert.Nil(t, Tokens(""))
}

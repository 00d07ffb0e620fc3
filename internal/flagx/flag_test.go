package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			"separate value",
			[]string{"-a", ":8080", "-x", "other"},
			[]string{"-a"},
			[]string{"-a", ":8080"},
		},
		{
			"equals form",
			[]string{"--config=conf.json", "-d=dsn"},
			[]string{"--config"},
			[]string{"--config=conf.json"},
		},
		{
			"flag followed by another flag keeps no value",
			[]string{"-a", "-d", "dsn"},
			[]string{"-a", "-d"},
			[]string{"-a", "-d", "dsn"},
		},
		{
			"nothing allowed",
			[]string{"-a", "x"},
			nil,
			[]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterArgs(tc.args, tc.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	old := os.Args
	os.Args = []string{"server", "-c", "conf.json"}
	t.Cleanup(func() { os.Args = old })

	assert.Equal(t, "conf.json", JsonConfigFlags())
}

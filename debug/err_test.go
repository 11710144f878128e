package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrArgument_Error(t *testing.T) {
	table := [...]struct {
		err  *ErrArgument
		text string
	}{
		{&ErrArgument{Name: "count", Value: 0}, "invalid count 0"},
		{&ErrArgument{Name: "count", Value: -8}, "invalid count -8"},
		{&ErrArgument{Name: "width", Value: 3}, "invalid width 3"},
		{&ErrArgument{Name: "address", Value: "zz"}, `invalid address "zz"`},
		{&ErrArgument{Name: "address", Value: ""}, `invalid address ""`},
	}

	for _, entry := range table {
		t.Run(entry.text, func(t *testing.T) {
			assert.Equal(t, entry.text, entry.err.Error())
			assert.ErrorIs(t, entry.err, ErrInvalidArgument)
		})
	}
}

package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	req := require.New(t)
	req.Equal("AS", Initials("Ana Silva"))
	req.Equal("PS", Initials("pedro santos lima"))
	req.Equal("YO", Initials("You"))
	req.Equal("X", Initials("x"))
	req.Equal("", Initials("   "))
}

func TestIdentityNormalize(t *testing.T) {
	req := require.New(t)
	req.Equal(Identity{Author: DefaultAuthor, Avatar: "YO"}, Identity{}.Normalize())
	req.Equal(Identity{Author: "Carlos Lima", Avatar: "CL"}, Identity{Author: " Carlos Lima "}.Normalize())
	req.Equal(Identity{Author: "Carlos", Avatar: "C*"}, Identity{Author: "Carlos", Avatar: "C*"}.Normalize())
}

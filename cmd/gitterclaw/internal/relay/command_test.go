package relay

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/clitest"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

func TestNewRelayCommand(t *testing.T) {
	cmd := NewRelayCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "relay", cmd.Use)
	assert.Equal(t, []string{"r"}, cmd.Aliases)
	assert.True(t, cmd.HasExample())

	for _, flag := range []string{"room", "port", "debug"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, cmd.Flags().ShorthandLookup("d"))
}

func TestRelayRequiresRoom(t *testing.T) {
	clitest.Setup(t)

	_, err := clitest.Run(t, NewRelayCommand(), "")
	assert.ErrorIs(t, err, errNoRoom)
}

func TestRelayUnknownRoom(t *testing.T) {
	srv := clitest.Setup(t)

	_, err := clitest.Run(t, NewRelayCommand(), "", "--room", "nowhere", "--port", "0")
	assert.ErrorIs(t, err, gitter.ErrRoomNotFound)
	assert.Empty(t, srv.Requests(http.MethodGet, "/stream/"))
}

func TestRelayRejectsArgs(t *testing.T) {
	clitest.Setup(t)

	_, err := clitest.Run(t, NewRelayCommand(), "", "general")
	assert.Error(t, err)
}

package room

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal/clitest"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

func TestJoin(t *testing.T) {
	srv := clitest.Setup(t)

	out, err := clitest.Run(t, NewJoinCommand(), "", "gitterHQ/sandbox")
	require.NoError(t, err)
	assert.Contains(t, out, "Joined gitterHQ/sandbox")

	posts := srv.Requests(http.MethodPost, "/v1/rooms")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"uri":"gitterHQ/sandbox"}`, posts[0].Body)
}

func TestJoinRequiresURI(t *testing.T) {
	clitest.Setup(t)

	_, err := clitest.Run(t, NewJoinCommand(), "")
	assert.Error(t, err)
}

func TestLeave(t *testing.T) {
	srv := clitest.Setup(t)

	out, err := clitest.Run(t, NewLeaveCommand(), "", "general")
	require.NoError(t, err)
	assert.Contains(t, out, "Left general")
	assert.Len(t, srv.Requests(http.MethodDelete, "/v1/rooms/abc123/users/user-1"), 1)
}

func TestLeaveUnknownRoom(t *testing.T) {
	srv := clitest.Setup(t)

	_, err := clitest.Run(t, NewLeaveCommand(), "", "nowhere")
	assert.ErrorIs(t, err, gitter.ErrRoomNotFound)
	assert.Empty(t, srv.Requests(http.MethodDelete, "/"))
}

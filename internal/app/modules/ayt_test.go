package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
)

func TestAreYouThere_RepliesYes(t *testing.T) {
	ayt := NewAreYouThere()
	alice := &user.User{Name: "alice"}

	output := ayt.ParseMessage(protocol.NewUserMessage(alice, "ayt"))

	reply := output.Dequeue()
	require.NotNil(t, reply)
	assert.Equal(t, "yes", reply.Text())
	assert.Same(t, alice, reply.User())
	assert.Nil(t, output.Dequeue())
}

func TestAreYouThere_IgnoresPayload(t *testing.T) {
	ayt := NewAreYouThere()
	alice := &user.User{Name: "alice"}

	output := ayt.ParseMessage(protocol.NewUserMessage(alice, "ayt anything at all"))

	reply := output.Dequeue()
	require.NotNil(t, reply)
	assert.Equal(t, "yes", reply.Text())
}

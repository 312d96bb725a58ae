package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTicketClientFabricatesStableHandle(t *testing.T) {
	c := NewMockTicketClient()
	id, ref, err := c.CreateOrUpdate(context.Background(), "", "subject", "body")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, ref, "MOCK-")

	id2, ref2, err := c.CreateOrUpdate(context.Background(), id, "subject (updated)", "body")
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, "MOCK-"+id, ref2)
	assert.Len(t, c.Created, 2)
}

func TestTicketAPIErrorClassification(t *testing.T) {
	err := &TicketAPIError{Code: "CONFLICT", Message: "already exists"}
	assert.True(t, err.IsConflict())
	assert.False(t, err.IsNotFound())
	assert.Equal(t, "CONFLICT: already exists", err.Error())
}

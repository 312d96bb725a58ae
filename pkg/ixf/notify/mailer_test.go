package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugMailerRecordsAndSuppresses(t *testing.T) {
	m := NewDebugMailer()
	debug := m.Send(context.Background(), "noc@example.org", "subject", "body")
	require.True(t, debug)
	require.Len(t, m.Sent, 1)
	assert.Equal(t, "noc@example.org", m.Sent[0].To)
	assert.Equal(t, "subject", m.Sent[0].Subject)
}

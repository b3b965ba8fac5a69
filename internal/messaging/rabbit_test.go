package messaging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopologyNames(t *testing.T) {
	req := require.New(t)
	req.Equal("workspace_abc_changes", ExchangeName("abc"))
	req.Equal("workspace_abc_dlq", DeadLetterQueueName("abc"))
}

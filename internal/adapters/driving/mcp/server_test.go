package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ask service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Status: &mockStatusService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAskService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(requiredPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("optional ports register extra tools", func(t *testing.T) {
		ports := requiredPorts()
		ports.Paper = &mockPaperService{}
		ports.Index = &mockIndexService{}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("empty ports", func(t *testing.T) {
		ports := &Ports{}
		assert.ErrorIs(t, ports.Validate(), ErrMissingAskService)
	})

	t.Run("missing status", func(t *testing.T) {
		ports := &Ports{Ask: &mockAskService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingStatusService)
	})

	t.Run("required only is valid", func(t *testing.T) {
		assert.NoError(t, requiredPorts().Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := requiredPorts()
		ports.Paper = &mockPaperService{}
		ports.Index = &mockIndexService{}
		assert.NoError(t, ports.Validate())
	})
}

package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/botsmith/pkg/adapters/memory"
	"github.com/aretw0/botsmith/pkg/dsl"
	"github.com/aretw0/botsmith/pkg/ports"
	contract "github.com/aretw0/botsmith/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"shop":    `{"nodes":[]}`,
		"support": "nodes: []",
	}

	// The contract compares raw bytes.
	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	loader := memory.NewLoader(data)

	contract.GraphLoaderContractTest(t, loader, bytesData)
}

func TestInMemoryLoader_Put(t *testing.T) {
	b := dsl.New()
	b.Start("start").Text("Hi")

	loader := memory.NewLoader(nil)
	require.NoError(t, loader.Put("hello", b.MustBuild()))
	assert.Error(t, loader.Put("", b.MustBuild()))

	raw, err := loader.GetGraph(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"start"`)

	names, err := loader.ListGraphs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, names)
}

func TestMemoryTokenStore_Contract(t *testing.T) {
	ports.RunTokenStoreContract(t, memory.NewTokenStore())
}

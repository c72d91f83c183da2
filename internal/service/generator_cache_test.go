package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/am-report-server/pkg/genai"
)

// countingGenerator records how many times Generate is invoked.
type countingGenerator struct {
	calls int
	err   error
}

func (g *countingGenerator) Generate(ctx context.Context, req *genai.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("response %d", g.calls), nil
}

func textRequest(model, text string) *genai.Request {
	return &genai.Request{
		Model:   model,
		Parts:   []genai.Part{genai.TextPart(text)},
		Options: genai.DefaultGenerationOptions(),
	}
}

func TestCachedGenerator_HitOnIdenticalRequest(t *testing.T) {
	inner := &countingGenerator{}
	cached, err := NewCachedGenerator(inner, 16, newTestLogger())
	require.NoError(t, err)

	first, err := cached.Generate(context.Background(), textRequest("gemini-2.5-flash", "hello"))
	require.NoError(t, err)

	second, err := cached.Generate(context.Background(), textRequest("gemini-2.5-flash", "hello"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	stats := cached.GetCacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.BackendCalls)
	assert.Equal(t, int64(2), stats.TotalRequests)
}

func TestCachedGenerator_DistinctRequestsMiss(t *testing.T) {
	inner := &countingGenerator{}
	cached, err := NewCachedGenerator(inner, 16, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.Generate(ctx, textRequest("gemini-2.5-flash", "hello"))
	require.NoError(t, err)
	_, err = cached.Generate(ctx, textRequest("gemini-2.5-pro", "hello"))
	require.NoError(t, err)
	_, err = cached.Generate(ctx, textRequest("gemini-2.5-flash", "goodbye"))
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedGenerator_OptionsAffectKey(t *testing.T) {
	inner := &countingGenerator{}
	cached, err := NewCachedGenerator(inner, 16, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	req := textRequest("gemini-2.5-flash", "hello")
	_, err = cached.Generate(ctx, req)
	require.NoError(t, err)

	hotter := textRequest("gemini-2.5-flash", "hello")
	hotter.Options.Temperature = 1.2
	_, err = cached.Generate(ctx, hotter)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGenerator_FailuresNotCached(t *testing.T) {
	inner := &countingGenerator{err: errors.New("backend down")}
	cached, err := NewCachedGenerator(inner, 16, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	req := textRequest("gemini-2.5-flash", "hello")

	_, err = cached.Generate(ctx, req)
	assert.Error(t, err)

	// The backend recovers; the next identical request must reach it.
	inner.err = nil
	text, err := cached.Generate(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, 2, inner.calls)
}

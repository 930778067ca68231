package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factgraph/factgraph/pkg/nlp"
)

// fakeClient returns canned responses per call, in order.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) Chat(ctx context.Context, messages []nlp.Message) (*nlp.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &nlp.Response{Content: content}, nil
}

func (f *fakeClient) Close() error { return nil }

const goodExtraction = `{
  "entities": [
    {"name": "Acme Corp", "type": "Organization", "description": "A company"},
    {"name": "John Smith", "type": "Person", "description": "An employee"}
  ],
  "relationships": [
    {"source": "John Smith", "target": "Acme Corp", "type": "WORKS_FOR", "description": "Employment"}
  ]
}`

func newTestExtractor(t *testing.T, client nlp.Client) *LLMExtractor {
	t.Helper()
	e, err := NewLLMExtractor(client, nil)
	require.NoError(t, err)
	e.SetCooldown(0)
	return e
}

func TestLLMExtractorParsesWellFormedResponse(t *testing.T) {
	e := newTestExtractor(t, &fakeClient{responses: []string{goodExtraction}})

	result := e.Extract(context.Background(), "some text", "test.txt")
	require.True(t, result.Success)
	require.Len(t, result.Entities, 2)
	assert.Equal(t, "Acme Corp", result.Entities[0].Name)
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, "WORKS_FOR", result.Relationships[0].Type)
}

func TestLLMExtractorStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + goodExtraction + "\n```"
	e := newTestExtractor(t, &fakeClient{responses: []string{fenced}})

	result := e.Extract(context.Background(), "some text", "")
	require.True(t, result.Success)
	assert.Len(t, result.Entities, 2)
}

func TestLLMExtractorRecoversJSONFromProse(t *testing.T) {
	chatty := "Here is what I found:\n" + goodExtraction + "\nLet me know if you need more."
	e := newTestExtractor(t, &fakeClient{responses: []string{chatty}})

	result := e.Extract(context.Background(), "some text", "")
	require.True(t, result.Success)
	assert.Len(t, result.Entities, 2)
}

func TestLLMExtractorRepairsBrokenJSON(t *testing.T) {
	// Trailing comma and unquoted key, the usual model damage.
	broken := `{"entities": [{"name": "Acme Corp", "type": "Organization", "description": "x"},], "relationships": []}`
	e := newTestExtractor(t, &fakeClient{responses: []string{broken}})

	result := e.Extract(context.Background(), "some text", "")
	require.True(t, result.Success)
	assert.Len(t, result.Entities, 1)
}

func TestLLMExtractorAbsorbsChatError(t *testing.T) {
	e := newTestExtractor(t, &fakeClient{errs: []error{errors.New("boom")}})

	result := e.Extract(context.Background(), "some text", "")
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "boom")
	assert.Empty(t, result.Entities)
	assert.Empty(t, result.Relationships)
}

func TestLLMExtractorAbsorbsGarbageResponse(t *testing.T) {
	e := newTestExtractor(t, &fakeClient{responses: []string{"I cannot do that."}})

	result := e.Extract(context.Background(), "some text", "")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Err)
}

func TestLLMExtractorTruncatesLongInput(t *testing.T) {
	client := &fakeClient{responses: []string{goodExtraction}}
	e := newTestExtractor(t, client)

	long := make([]byte, MaxInputChars*2)
	for i := range long {
		long[i] = 'a'
	}
	result := e.Extract(context.Background(), string(long), "big.txt")
	assert.True(t, result.Success)
}

func TestExtractFromChunksIsolatesFailures(t *testing.T) {
	e := newTestExtractor(t, &fakeClient{
		responses: []string{goodExtraction, "", `{"entities": [{"name": "Paris", "type": "Location", "description": "City"}], "relationships": []}`},
		errs:      []error{nil, errors.New("rate limited"), nil},
	})

	result := e.ExtractFromChunks(context.Background(), []string{"a", "b", "c"}, "doc.txt")
	require.True(t, result.Success)
	assert.Equal(t, 3, result.ChunksProcessed)
	assert.Len(t, result.Entities, 3) // Acme Corp, John Smith, Paris
	assert.Len(t, result.Relationships, 1)
}

func TestAggregateDeduplicatesEntitiesFirstWins(t *testing.T) {
	r1 := &Result{
		Success: true,
		Entities: []Entity{
			{Name: "Acme Corp", Type: "Organization", Description: "first description"},
		},
		Relationships: []Relationship{
			{Source: "A", Target: "B", Type: "KNOWS"},
		},
	}
	r2 := &Result{
		Success: true,
		Entities: []Entity{
			{Name: "Acme Corp", Type: "Organization", Description: "second description"},
			{Name: "Acme Corp", Type: "Product", Description: "same name, different type"},
		},
		Relationships: []Relationship{
			{Source: "A", Target: "B", Type: "KNOWS"},
		},
	}

	agg := Aggregate([]*Result{r1, r2})
	require.Len(t, agg.Entities, 2)
	assert.Equal(t, "first description", agg.Entities[0].Description)
	assert.Equal(t, "Product", agg.Entities[1].Type)
	// Duplicate relationships are kept; the store decides edge identity.
	assert.Len(t, agg.Relationships, 2)
	assert.Equal(t, 2, agg.ChunksProcessed)
}

func TestAggregateSkipsFailedResults(t *testing.T) {
	ok := &Result{Success: true, Entities: []Entity{{Name: "X", Type: "Concept"}}}
	bad := &Result{Success: false, Err: "boom", Entities: []Entity{{Name: "Y", Type: "Concept"}}}

	agg := Aggregate([]*Result{bad, ok, nil})
	assert.True(t, agg.Success)
	require.Len(t, agg.Entities, 1)
	assert.Equal(t, "X", agg.Entities[0].Name)
}

func TestSimpleExtractorPatterns(t *testing.T) {
	text := "Dr. Jane Doe joined Acme Corp on January 5, 2024. Acme Corp is based in Berlin. Meeting on 12/31/2024."

	result := NewSimpleExtractor().Extract(context.Background(), text, "")
	require.True(t, result.Success)
	assert.Empty(t, result.Relationships)

	byName := map[string]string{}
	for _, e := range result.Entities {
		byName[e.Name] = e.Type
	}
	assert.Equal(t, "Organization", byName["Acme Corp"])
	assert.Equal(t, "Person", byName["Dr. Jane Doe"])
	assert.Equal(t, "Date", byName["January 5, 2024"])
	assert.Equal(t, "Date", byName["12/31/2024"])
	// Duplicate mention of Acme Corp collapses to one entity.
	assert.Len(t, result.Entities, 4)
}

func TestSimpleExtractorNoMatches(t *testing.T) {
	result := NewSimpleExtractor().Extract(context.Background(), "nothing interesting here", "")
	assert.True(t, result.Success)
	assert.Empty(t, result.Entities)
}

// memKV is an in-memory KV for cache wrapper tests.
type memKV struct {
	m map[string][]byte
}

func (k *memKV) Get(key string) ([]byte, bool) {
	v, ok := k.m[key]
	return v, ok
}

func (k *memKV) Put(key string, value []byte) error {
	k.m[key] = value
	return nil
}

func TestCachedExtractorHitBypassesInner(t *testing.T) {
	client := &fakeClient{responses: []string{goodExtraction, goodExtraction}}
	inner := newTestExtractor(t, client)
	cached := NewCachedExtractor(inner, &memKV{m: map[string][]byte{}}, nil)

	first := cached.Extract(context.Background(), "text", "doc.txt")
	require.True(t, first.Success)
	assert.Equal(t, 1, client.calls)

	second := cached.Extract(context.Background(), "text", "doc.txt")
	require.True(t, second.Success)
	assert.Equal(t, 1, client.calls, "second call must be served from cache")
	assert.Equal(t, first.Entities, second.Entities)

	// Different source is a different key.
	cached.Extract(context.Background(), "text", "other.txt")
	assert.Equal(t, 2, client.calls)
}

func TestCachedExtractorDoesNotCacheFailures(t *testing.T) {
	client := &fakeClient{
		responses: []string{"", goodExtraction},
		errs:      []error{errors.New("boom"), nil},
	}
	inner := newTestExtractor(t, client)
	cached := NewCachedExtractor(inner, &memKV{m: map[string][]byte{}}, nil)

	first := cached.Extract(context.Background(), "text", "doc.txt")
	assert.False(t, first.Success)

	second := cached.Extract(context.Background(), "text", "doc.txt")
	assert.True(t, second.Success, "failure must not be cached")
	assert.Equal(t, 2, client.calls)
}

// pacedClient stamps the wall clock on every model call.
type pacedClient struct {
	fakeClient
	times []time.Time
}

func (c *pacedClient) Chat(ctx context.Context, messages []nlp.Message) (*nlp.Response, error) {
	c.times = append(c.times, time.Now())
	return c.fakeClient.Chat(ctx, messages)
}

func TestCachedExtractorKeepsCooldownBetweenMisses(t *testing.T) {
	client := &pacedClient{fakeClient: fakeClient{
		responses: []string{goodExtraction, goodExtraction, goodExtraction},
	}}
	inner, err := NewLLMExtractor(client, nil)
	require.NoError(t, err)
	inner.SetCooldown(60 * time.Millisecond)
	cached := NewCachedExtractor(inner, &memKV{m: map[string][]byte{}}, nil)

	result := cached.ExtractFromChunks(context.Background(), []string{"a", "b", "c"}, "doc.txt")
	require.True(t, result.Success)
	require.Len(t, client.times, 3)
	for i := 1; i < len(client.times); i++ {
		gap := client.times[i].Sub(client.times[i-1])
		assert.GreaterOrEqual(t, gap, 60*time.Millisecond, "model calls must be paced")
	}
}

func TestCachedExtractorHitsCostNoCooldown(t *testing.T) {
	kv := &memKV{m: map[string][]byte{}}

	warm := NewCachedExtractor(
		newTestExtractor(t, &fakeClient{responses: []string{goodExtraction}}), kv, nil)
	require.True(t, warm.Extract(context.Background(), "a", "doc.txt").Success)

	client := &fakeClient{responses: []string{goodExtraction}}
	inner, err := NewLLMExtractor(client, nil)
	require.NoError(t, err)
	inner.SetCooldown(time.Hour)
	cached := NewCachedExtractor(inner, kv, nil)

	// Chunk "a" is a hit and chunk "b" is the first model call, so the
	// hour-long cooldown must never be waited on. The deadline turns a
	// wrongly inserted pause into a visible failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := cached.ExtractFromChunks(ctx, []string{"a", "b"}, "doc.txt")
	require.True(t, result.Success)
	assert.Equal(t, 1, client.calls)
	assert.Len(t, result.Entities, 2)
}

func TestCachedExtractorNilCachePassesThrough(t *testing.T) {
	client := &fakeClient{responses: []string{goodExtraction}}
	cached := NewCachedExtractor(newTestExtractor(t, client), nil, nil)

	result := cached.Extract(context.Background(), "text", "")
	assert.True(t, result.Success)
	assert.Equal(t, 1, client.calls)
}

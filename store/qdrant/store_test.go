package qdrant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-vectorstores/embedding"
	"github.com/aqua777/go-vectorstores/schema"
	"github.com/aqua777/go-vectorstores/store"
)

// fakeClient records every request and serves canned responses.
type fakeClient struct {
	collections []string
	listCalls   int
	listErr     error

	created   []*qdrant.CreateCollection
	createErr error

	upserts   []*qdrant.UpsertPoints
	upsertErr error

	deletes         []*qdrant.DeletePoints
	deleteErr       error
	deleteErrOnCall int

	queries     []*qdrant.QueryPoints
	queryResult []*qdrant.ScoredPoint
	queryErr    error

	closed bool
}

func (c *fakeClient) ListCollections(ctx context.Context) ([]string, error) {
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.collections, nil
}

func (c *fakeClient) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, req)
	c.collections = append(c.collections, req.GetCollectionName())
	return nil
}

func (c *fakeClient) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	if c.upsertErr != nil {
		return nil, c.upsertErr
	}
	c.upserts = append(c.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (c *fakeClient) Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	if c.deleteErrOnCall > 0 && len(c.deletes)+1 == c.deleteErrOnCall {
		return nil, c.deleteErr
	}
	if c.deleteErrOnCall == 0 && c.deleteErr != nil {
		return nil, c.deleteErr
	}
	c.deletes = append(c.deletes, req)
	return &qdrant.UpdateResult{}, nil
}

func (c *fakeClient) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	c.queries = append(c.queries, req)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.queryResult, nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func newTestStore(t *testing.T, client *fakeClient, opts ...Option) *Store {
	t.Helper()
	s, err := New(append([]Option{WithClient(client)}, opts...)...)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		client := &fakeClient{}
		s, err := New(WithClient(client))
		require.NoError(t, err)

		assert.Equal(t, DefaultCollectionName, s.collectionName)
		assert.Equal(t, DefaultContentKey, s.contentKey)
		assert.Equal(t, DefaultMetadataKey, s.metadataKey)
		assert.NotNil(t, s.logger)
	})

	t.Run("Options override defaults", func(t *testing.T) {
		embedder := &embedding.MockEmbedder{}
		s, err := New(
			WithClient(&fakeClient{}),
			WithCollectionName("articles"),
			WithContentKey("page_content"),
			WithMetadataKey("meta"),
			WithEmbedder(embedder),
			WithCollectionConfig(CollectionConfig{VectorSize: 8}),
		)
		require.NoError(t, err)

		assert.Equal(t, "articles", s.collectionName)
		assert.Equal(t, "page_content", s.contentKey)
		assert.Equal(t, "meta", s.metadataKey)
		assert.Equal(t, embedder, s.embedder)
		assert.Equal(t, uint64(8), s.collectionCfg.VectorSize)
	})

	t.Run("Requires a client or URL", func(t *testing.T) {
		t.Setenv("QDRANT_URL", "")

		_, err := New()
		assert.ErrorIs(t, err, ErrMissingConnection)
	})

	t.Run("Falls back to environment URL", func(t *testing.T) {
		t.Setenv("QDRANT_URL", "http://localhost:6333")

		s, err := New()
		require.NoError(t, err)
		assert.NotNil(t, s.client)
	})

	t.Run("Rejects colliding payload keys", func(t *testing.T) {
		_, err := New(
			WithClient(&fakeClient{}),
			WithContentKey("page"),
			WithMetadataKey("page"),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must differ")
	})
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		host    string
		port    int
		useTLS  bool
		wantErr bool
	}{
		{
			name:   "Explicit port maps to the gRPC port",
			rawURL: "http://localhost:6333",
			host:   "localhost",
			port:   6334,
		},
		{
			name:   "Missing port uses the gRPC default",
			rawURL: "http://qdrant.internal",
			host:   "qdrant.internal",
			port:   6334,
		},
		{
			name:   "HTTPS enables TLS",
			rawURL: "https://qdrant.example.com",
			host:   "qdrant.example.com",
			port:   6334,
			useTLS: true,
		},
		{
			name:   "Custom port",
			rawURL: "http://10.0.0.5:7000",
			host:   "10.0.0.5",
			port:   7001,
		},
		{
			name:   "Empty URL falls back to localhost",
			rawURL: "",
			host:   "localhost",
			port:   6334,
		},
		{
			name:    "Malformed URL",
			rawURL:  "://missing-scheme",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, useTLS, err := parseURL(tt.rawURL)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.useTLS, useTLS)
		})
	}
}

func TestStoreAddVectors(t *testing.T) {
	ctx := context.Background()

	t.Run("Zero vectors is a no-op", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client)

		ids, err := s.AddVectors(ctx, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, ids)
		assert.Empty(t, client.upserts)
		assert.Zero(t, client.listCalls)
	})

	t.Run("Documents become points", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client)

		docs := []schema.Document{
			{ID: "doc-1", Text: "first", Metadata: map[string]interface{}{"author": "alice"}},
			{Text: "second"},
		}
		vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

		ids, err := s.AddVectors(ctx, vectors, docs)
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "doc-1", ids[0])
		assert.NotEmpty(t, ids[1])

		require.Len(t, client.upserts, 1)
		req := client.upserts[0]
		assert.Equal(t, "documents", req.GetCollectionName())
		assert.True(t, req.GetWait())
		require.Len(t, req.Points, 2)

		first := req.Points[0]
		assert.Equal(t, "doc-1", first.GetId().GetUuid())
		assert.Equal(t, []float32{0.1, 0.2}, first.GetVectors().GetVector().GetData())
		assert.Equal(t, "first", first.Payload["content"].GetStringValue())
		meta := first.Payload["metadata"].GetStructValue()
		require.NotNil(t, meta)
		assert.Equal(t, "alice", meta.GetFields()["author"].GetStringValue())

		second := req.Points[1]
		assert.Equal(t, ids[1], second.GetId().GetUuid())
		assert.Equal(t, "second", second.Payload["content"].GetStringValue())
	})

	t.Run("Creates the collection sized by the vectors", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client)

		_, err := s.AddVectors(ctx, [][]float32{{1, 2, 3}}, []schema.Document{{Text: "a"}})
		require.NoError(t, err)

		require.Len(t, client.created, 1)
		params := client.created[0].GetVectorsConfig().GetParams()
		require.NotNil(t, params)
		assert.Equal(t, uint64(3), params.GetSize())
		assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())
		assert.Len(t, client.upserts, 1)
	})

	t.Run("Extras merge under the reserved keys", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client, WithUploadPayload(map[string]interface{}{"source": "ingest"}))

		docs := []schema.Document{{Text: "body"}}
		_, err := s.AddVectors(ctx, [][]float32{{1}}, docs,
			store.WithExtraPayload(map[string]interface{}{"batch": "b1", "content": "evil"}))
		require.NoError(t, err)

		payload := client.upserts[0].Points[0].Payload
		assert.Equal(t, "ingest", payload["source"].GetStringValue())
		assert.Equal(t, "b1", payload["batch"].GetStringValue())
		// The reserved content key wins over the extra of the same name.
		assert.Equal(t, "body", payload["content"].GetStringValue())
	})

	t.Run("Upsert errors are wrapped", func(t *testing.T) {
		client := &fakeClient{
			collections: []string{"documents"},
			upsertErr:   errors.New("connection reset"),
		}
		s := newTestStore(t, client)

		_, err := s.AddVectors(ctx, [][]float32{{1}}, []schema.Document{{Text: "a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `upsert on collection "documents" failed`)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestStoreAddDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Embeds then stores", func(t *testing.T) {
		embedder := &embedding.MockEmbedder{
			Vectors: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		}
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client, WithEmbedder(embedder))

		docs := []schema.Document{{Text: "first"}, {Text: "second"}}
		ids, err := s.AddDocuments(ctx, docs)
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		require.Len(t, embedder.DocumentCalls, 1)
		assert.Equal(t, []string{"first", "second"}, embedder.DocumentCalls[0])

		require.Len(t, client.upserts, 1)
		points := client.upserts[0].Points
		require.Len(t, points, 2)
		assert.Equal(t, []float32{0.1, 0.2}, points[0].GetVectors().GetVector().GetData())
		assert.Equal(t, []float32{0.3, 0.4}, points[1].GetVectors().GetVector().GetData())
	})

	t.Run("Empty input makes no calls", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client)

		ids, err := s.AddDocuments(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, ids)
		assert.Empty(t, client.upserts)
	})

	t.Run("Requires an embedder", func(t *testing.T) {
		s := newTestStore(t, &fakeClient{})

		_, err := s.AddDocuments(ctx, []schema.Document{{Text: "a"}})
		assert.ErrorIs(t, err, store.ErrNoEmbedder)
	})

	t.Run("Embedding failures are reported", func(t *testing.T) {
		embedder := &embedding.MockEmbedder{Err: errors.New("quota exceeded")}
		s := newTestStore(t, &fakeClient{}, WithEmbedder(embedder))

		_, err := s.AddDocuments(ctx, []schema.Document{{Text: "a"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to embed documents")
	})
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes by IDs", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client)

		err := s.Delete(ctx, store.WithDeleteIDs("a", "b", "c"))
		require.NoError(t, err)

		require.Len(t, client.deletes, 1)
		req := client.deletes[0]
		assert.Equal(t, "documents", req.GetCollectionName())
		assert.True(t, req.GetWait())
		assert.Equal(t, qdrant.WriteOrderingType_Weak, req.GetOrdering().GetType())

		ids := req.GetPoints().GetPoints().GetIds()
		require.Len(t, ids, 3)
		assert.Equal(t, "a", ids[0].GetUuid())
		assert.Equal(t, "c", ids[2].GetUuid())
	})

	t.Run("Chunks large ID sets", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client)

		ids := make([]string, 2500)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%04d", i)
		}

		err := s.Delete(ctx, store.WithDeleteIDs(ids...))
		require.NoError(t, err)

		require.Len(t, client.deletes, 3)
		assert.Len(t, client.deletes[0].GetPoints().GetPoints().GetIds(), 1000)
		assert.Len(t, client.deletes[1].GetPoints().GetPoints().GetIds(), 1000)
		assert.Len(t, client.deletes[2].GetPoints().GetPoints().GetIds(), 500)

		assert.Equal(t, "id-0000", client.deletes[0].GetPoints().GetPoints().GetIds()[0].GetUuid())
		assert.Equal(t, "id-1000", client.deletes[1].GetPoints().GetPoints().GetIds()[0].GetUuid())
		assert.Equal(t, "id-2000", client.deletes[2].GetPoints().GetPoints().GetIds()[0].GetUuid())

		for _, req := range client.deletes {
			assert.True(t, req.GetWait())
			assert.Equal(t, qdrant.WriteOrderingType_Weak, req.GetOrdering().GetType())
		}
	})

	t.Run("A failing chunk aborts the rest", func(t *testing.T) {
		client := &fakeClient{
			collections:     []string{"documents"},
			deleteErr:       errors.New("unavailable"),
			deleteErrOnCall: 2,
		}
		s := newTestStore(t, client)

		ids := make([]string, 2500)
		for i := range ids {
			ids[i] = fmt.Sprintf("id-%04d", i)
		}

		err := s.Delete(ctx, store.WithDeleteIDs(ids...))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `delete on collection "documents" failed`)
		assert.Len(t, client.deletes, 1)
	})

	t.Run("Deletes by filters", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client)

		err := s.Delete(ctx, store.WithDeleteFilters(
			schema.NewMetadataFilters(schema.NewMetadataFilter("author", "alice")),
		))
		require.NoError(t, err)

		require.Len(t, client.deletes, 1)
		filter := client.deletes[0].GetPoints().GetFilter()
		require.NotNil(t, filter)
		require.Len(t, filter.Must, 1)
		field := filter.Must[0].GetField()
		assert.Equal(t, "metadata.author", field.GetKey())
		assert.Equal(t, "alice", field.GetMatch().GetKeyword())
	})

	t.Run("Rejects both selectors before any call", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client)

		err := s.Delete(ctx,
			store.WithDeleteIDs("a"),
			store.WithDeleteFilters(schema.NewMetadataFilters(schema.NewMetadataFilter("k", "v"))),
		)
		assert.ErrorIs(t, err, store.ErrBothSelectors)
		assert.Empty(t, client.deletes)
	})

	t.Run("Rejects a missing selector", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client)

		err := s.Delete(ctx)
		assert.ErrorIs(t, err, store.ErrMissingSelector)
		assert.Empty(t, client.deletes)
	})
}

func TestEnsureCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a missing collection once", func(t *testing.T) {
		client := &fakeClient{}
		s := newTestStore(t, client, WithCollectionConfig(CollectionConfig{VectorSize: 8}))

		require.NoError(t, s.EnsureCollection(ctx))
		require.NoError(t, s.EnsureCollection(ctx))

		require.Len(t, client.created, 1)
		req := client.created[0]
		assert.Equal(t, "documents", req.GetCollectionName())
		params := req.GetVectorsConfig().GetParams()
		assert.Equal(t, uint64(8), params.GetSize())
		assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())
	})

	t.Run("Leaves an existing collection alone", func(t *testing.T) {
		client := &fakeClient{collections: []string{"documents"}}
		s := newTestStore(t, client)

		require.NoError(t, s.EnsureCollection(ctx))
		assert.Empty(t, client.created)
	})

	t.Run("Probes the embedder for the vector size", func(t *testing.T) {
		embedder := &embedding.MockEmbedder{Embedding: []float32{1, 2, 3, 4, 5}}
		client := &fakeClient{}
		s := newTestStore(t, client, WithEmbedder(embedder))

		require.NoError(t, s.EnsureCollection(ctx))

		require.Len(t, client.created, 1)
		assert.Equal(t, uint64(5), client.created[0].GetVectorsConfig().GetParams().GetSize())
		assert.Len(t, embedder.QueryCalls, 1)
	})

	t.Run("Collection config wins over the probe", func(t *testing.T) {
		embedder := &embedding.MockEmbedder{Embedding: []float32{1, 2}}
		client := &fakeClient{}
		s := newTestStore(t, client,
			WithEmbedder(embedder),
			WithCollectionConfig(CollectionConfig{VectorSize: 16, Distance: qdrant.Distance_Euclid}),
		)

		require.NoError(t, s.EnsureCollection(ctx))

		params := client.created[0].GetVectorsConfig().GetParams()
		assert.Equal(t, uint64(16), params.GetSize())
		assert.Equal(t, qdrant.Distance_Euclid, params.GetDistance())
		assert.Empty(t, embedder.QueryCalls)
	})

	t.Run("Fails without a size source", func(t *testing.T) {
		s := newTestStore(t, &fakeClient{})

		err := s.EnsureCollection(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot size collection")
	})

	t.Run("List errors are wrapped", func(t *testing.T) {
		client := &fakeClient{listErr: errors.New("unavailable")}
		s := newTestStore(t, client)

		err := s.EnsureCollection(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list collections")
	})
}

func TestStoreClose(t *testing.T) {
	client := &fakeClient{}
	s := newTestStore(t, client)

	require.NoError(t, s.Close())
	assert.True(t, client.closed)
}

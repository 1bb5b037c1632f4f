// Package qdrant provides a vector store implementation backed by a Qdrant
// service, using its gRPC client.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aqua777/go-vectorstores/embedding"
	"github.com/aqua777/go-vectorstores/schema"
	"github.com/aqua777/go-vectorstores/store"
)

// Defaults for the adapter configuration.
const (
	DefaultCollectionName = "documents"
	DefaultContentKey     = "content"
	DefaultMetadataKey    = "metadata"

	// deleteBatchSize is the number of point IDs sent per delete call.
	deleteBatchSize = 1000
)

// ErrMissingConnection is returned by New when neither a client nor a URL
// (including the QDRANT_URL fallback) is configured.
var ErrMissingConnection = errors.New("no qdrant client or URL configured")

// Client is the subset of *qdrant.Client the store uses. *qdrant.Client
// satisfies it; tests substitute a fake.
type Client interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// CollectionConfig describes the vector parameters used when the store has
// to create its collection.
type CollectionConfig struct {
	// VectorSize is the embedding dimensionality. Zero means size the
	// collection from a probe embedding.
	VectorSize uint64
	// Distance is the similarity function. Zero value means cosine.
	Distance qdrant.Distance
}

// Store is a vector store backed by a Qdrant collection. Documents are
// stored as points whose payload carries the text under the content key and
// the metadata map under the metadata key. All fields are set at
// construction and read-only afterwards.
type Store struct {
	client         Client
	url            string
	apiKey         string
	collectionName string
	contentKey     string
	metadataKey    string
	embedder       embedding.Embedder
	collectionCfg  *CollectionConfig
	uploadPayload  map[string]interface{}
	logger         *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClient sets a pre-built client handle. It takes precedence over URL
// configuration.
func WithClient(client Client) Option {
	return func(s *Store) {
		s.client = client
	}
}

// WithURL sets the Qdrant service URL, e.g. "http://localhost:6333".
// Falls back to the QDRANT_URL environment variable.
func WithURL(rawURL string) Option {
	return func(s *Store) {
		s.url = rawURL
	}
}

// WithAPIKey sets the API key sent with each request.
// Falls back to the QDRANT_API_KEY environment variable.
func WithAPIKey(apiKey string) Option {
	return func(s *Store) {
		s.apiKey = apiKey
	}
}

// WithCollectionName sets the collection the store reads and writes.
func WithCollectionName(name string) Option {
	return func(s *Store) {
		s.collectionName = name
	}
}

// WithContentKey sets the payload key carrying the document text.
func WithContentKey(key string) Option {
	return func(s *Store) {
		s.contentKey = key
	}
}

// WithMetadataKey sets the payload key carrying the document metadata.
func WithMetadataKey(key string) Option {
	return func(s *Store) {
		s.metadataKey = key
	}
}

// WithCollectionConfig sets the vector parameters used when the store
// creates its collection.
func WithCollectionConfig(cfg CollectionConfig) Option {
	return func(s *Store) {
		s.collectionCfg = &cfg
	}
}

// WithEmbedder sets the embedder used by the text operations.
func WithEmbedder(embedder embedding.Embedder) Option {
	return func(s *Store) {
		s.embedder = embedder
	}
}

// WithUploadPayload adds top-level payload fields to every point the store
// writes. The content and metadata keys always win over these extras.
func WithUploadPayload(fields map[string]interface{}) Option {
	return func(s *Store) {
		s.uploadPayload = fields
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store. A client handle or a URL (argument or QDRANT_URL) is
// required; the content and metadata keys must differ.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		collectionName: DefaultCollectionName,
		contentKey:     DefaultContentKey,
		metadataKey:    DefaultMetadataKey,
		logger:         slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.contentKey == s.metadataKey {
		return nil, fmt.Errorf("content key and metadata key must differ, both are %q", s.contentKey)
	}

	if s.client == nil {
		rawURL := s.url
		if rawURL == "" {
			rawURL = os.Getenv("QDRANT_URL")
		}
		if rawURL == "" {
			return nil, ErrMissingConnection
		}
		apiKey := s.apiKey
		if apiKey == "" {
			apiKey = os.Getenv("QDRANT_API_KEY")
		}

		client, err := newClientFromURL(rawURL, apiKey)
		if err != nil {
			return nil, err
		}
		s.client = client
	}

	return s, nil
}

// newClientFromURL builds a gRPC client from an HTTP-style URL.
func newClientFromURL(rawURL, apiKey string) (*qdrant.Client, error) {
	host, port, useTLS, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return client, nil
}

// parseURL extracts gRPC connection settings from an HTTP-style URL. The
// gRPC port is the HTTP port + 1 when the URL carries one (Qdrant's
// convention), 6334 otherwise; the https scheme enables TLS.
func parseURL(rawURL string) (host string, port int, useTLS bool, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant URL %q: %w", rawURL, err)
	}

	host = parsed.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = 6334
	if parsed.Port() != "" {
		if httpPort, convErr := strconv.Atoi(parsed.Port()); convErr == nil {
			port = httpPort + 1
		}
	}

	return host, port, parsed.Scheme == "https", nil
}

// AddDocuments embeds the documents and stores them.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, opts ...store.AddOption) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, store.ErrNoEmbedder
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	return s.AddVectors(ctx, vectors, docs, opts...)
}

// AddVectors stores pre-embedded documents as points. Documents without an
// ID get a fresh UUID. Zero vectors is a no-op that makes no remote calls.
func (s *Store) AddVectors(ctx context.Context, vectors [][]float32, docs []schema.Document, opts ...store.AddOption) ([]string, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	options := store.ApplyAddOptions(opts...)

	if err := s.ensureCollection(ctx, uint64(len(vectors[0]))); err != nil {
		return nil, err
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	ids := make([]string, len(vectors))
	for i, vector := range vectors {
		doc := docs[i]
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: s.buildPayload(doc, options.ExtraPayload),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.logger.Error("failed to upsert points", "collection", s.collectionName, "count", len(points), "error", err)
		return nil, wrapRemoteErr("upsert", s.collectionName, err)
	}

	s.logger.Info("upserted points", "collection", s.collectionName, "count", len(points))
	return ids, nil
}

// Delete removes points selected by ID or by metadata filter. ID deletions
// are chunked; a failing chunk aborts the rest.
func (s *Store) Delete(ctx context.Context, opts ...store.DeleteOption) error {
	options := store.ApplyDeleteOptions(opts...)
	if err := options.Validate(); err != nil {
		return err
	}

	if len(options.IDs) > 0 {
		return s.deleteByIDs(ctx, options.IDs)
	}
	return s.deleteByFilters(ctx, options.Filters)
}

func (s *Store) deleteByIDs(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		pointIDs := make([]*qdrant.PointId, len(chunk))
		for i, id := range chunk {
			pointIDs[i] = qdrant.NewID(id)
		}

		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collectionName,
			Points:         qdrant.NewPointsSelector(pointIDs...),
			Wait:           qdrant.PtrOf(true),
			Ordering:       &qdrant.WriteOrdering{Type: qdrant.WriteOrderingType_Weak},
		})
		if err != nil {
			s.logger.Error("failed to delete points", "collection", s.collectionName, "count", len(chunk), "error", err)
			return wrapRemoteErr("delete", s.collectionName, err)
		}
	}

	s.logger.Info("deleted points", "collection", s.collectionName, "count", len(ids))
	return nil
}

func (s *Store) deleteByFilters(ctx context.Context, filters *schema.MetadataFilters) error {
	filter, err := s.translateFilters(filters)
	if err != nil {
		return err
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
		Ordering:       &qdrant.WriteOrdering{Type: qdrant.WriteOrderingType_Weak},
	})
	if err != nil {
		s.logger.Error("failed to delete points", "collection", s.collectionName, "error", err)
		return wrapRemoteErr("delete", s.collectionName, err)
	}

	s.logger.Info("deleted points by filter", "collection", s.collectionName)
	return nil
}

// EnsureCollection creates the collection when it does not exist yet. The
// vector size comes from the collection config when set, otherwise from a
// probe embedding; the distance defaults to cosine.
func (s *Store) EnsureCollection(ctx context.Context) error {
	return s.ensureCollection(ctx, 0)
}

func (s *Store) ensureCollection(ctx context.Context, knownSize uint64) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return wrapRemoteErr("list collections", s.collectionName, err)
	}
	for _, name := range collections {
		if name == s.collectionName {
			return nil
		}
	}

	size := knownSize
	distance := qdrant.Distance_Cosine
	if s.collectionCfg != nil {
		if s.collectionCfg.VectorSize > 0 {
			size = s.collectionCfg.VectorSize
		}
		if s.collectionCfg.Distance != 0 {
			distance = s.collectionCfg.Distance
		}
	}
	if size == 0 {
		if s.embedder == nil {
			return fmt.Errorf("cannot size collection %q: no vector size configured and no embedder to probe", s.collectionName)
		}
		probe, err := s.embedder.EmbedQuery(ctx, "dimension probe")
		if err != nil {
			return fmt.Errorf("failed to probe embedding size: %w", err)
		}
		size = uint64(len(probe))
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: distance,
		}),
	})
	if err != nil {
		return wrapRemoteErr("create collection", s.collectionName, err)
	}

	s.logger.Info("created collection", "collection", s.collectionName, "vector_size", size)
	return nil
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// wrapRemoteErr wraps a client error with the operation, the collection, and
// the gRPC status code when one is attached.
func wrapRemoteErr(op, collection string, err error) error {
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		return fmt.Errorf("%s on collection %q failed with %s: %w", op, collection, st.Code(), err)
	}
	return fmt.Errorf("%s on collection %q failed: %w", op, collection, err)
}

// Ensure Store implements the interface.
var _ store.VectorStore = (*Store)(nil)

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"pdfrag/config"
	"pdfrag/models"
)

const (
	docIDKey      = "doc_id"
	pageNumberKey = "page_number"
	startIndexKey = "start_index"

	readyTimeout = 30 * time.Second
	readyPoll    = time.Second
)

// ChromaIndex implements VectorIndex on a Chroma collection using the v2
// API. The collection stores cosine-space vectors; the namespace, when
// configured, is folded into the collection name so deployments sharing a
// Chroma instance stay isolated.
type ChromaIndex struct {
	client chromago.Client
	name   string

	mu         sync.Mutex
	collection chromago.Collection
}

// NewChromaIndex creates an index handle against the configured Chroma
// server. The collection itself is provisioned by EnsureReady.
func NewChromaIndex(cfg *config.Config) (*ChromaIndex, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		return nil, fmt.Errorf("could not create chroma client: %w", err)
	}

	name := cfg.IndexName
	if cfg.Namespace != "" {
		name = name + "-" + cfg.Namespace
	}
	return &ChromaIndex{client: client, name: name}, nil
}

// Close releases the underlying client resources.
func (x *ChromaIndex) Close() error {
	return x.client.Close()
}

// EnsureReady gets or creates the collection and polls until it answers a
// count request. Creation is idempotent; repeated calls reuse the existing
// collection handle.
func (x *ChromaIndex) EnsureReady(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.collection != nil {
		return nil
	}

	log.Printf("INDEX: Getting or creating collection '%s'...", x.name)
	collection, err := x.client.GetOrCreateCollection(
		ctx,
		x.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewStringAttribute("created_by", "pdfrag"),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexProvisioning, err)
	}

	deadline := time.Now().Add(readyTimeout)
	for {
		if _, err = collection.Count(ctx); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: collection '%s' not ready after %s: %v", ErrIndexProvisioning, x.name, readyTimeout, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrIndexProvisioning, ctx.Err())
		case <-time.After(readyPoll):
		}
	}

	log.Printf("INDEX: Collection '%s' ready", x.name)
	x.collection = collection
	return nil
}

func (x *ChromaIndex) getCollection() (chromago.Collection, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.collection == nil {
		return nil, fmt.Errorf("%w: collection not provisioned, call EnsureReady first", ErrIndexProvisioning)
	}
	return x.collection, nil
}

// Upsert appends all records in a single batched add. Record IDs are fresh
// UUIDs; Chroma treats the write as additive.
func (x *ChromaIndex) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	collection, err := x.getCollection()
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, 0, len(records))
	texts := make([]string, 0, len(records))
	embs := make([]embeddings.Embedding, 0, len(records))
	metas := make([]chromago.DocumentMetadata, 0, len(records))
	for _, rec := range records {
		ids = append(ids, chromago.DocumentID(uuid.New().String()))
		texts = append(texts, rec.Chunk.Text)
		embs = append(embs, embeddings.NewEmbeddingFromFloat32(rec.Embedding))
		metas = append(metas, chromago.NewDocumentMetadata(
			chromago.NewStringAttribute(docIDKey, rec.Chunk.DocID),
			chromago.NewIntAttribute(pageNumberKey, int64(rec.Chunk.PageNumber)),
			chromago.NewIntAttribute(startIndexKey, int64(rec.Chunk.StartIndex)),
		))
	}

	err = collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsert, err)
	}
	return nil
}

// Query runs a nearest-neighbor search, optionally restricted to one
// document via a metadata equality filter, and returns hits ordered by
// descending similarity.
func (x *ChromaIndex) Query(ctx context.Context, vector []float32, k int, docID string) ([]models.ScoredChunk, error) {
	collection, err := x.getCollection()
	if err != nil {
		return nil, err
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	}
	if docID != "" {
		opts = append(opts, chromago.WithWhereQuery(chromago.EqString(docIDKey, docID)))
	}

	results, err := collection.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}

	var hits []models.ScoredChunk
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return hits, nil
	}

	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		hit := models.ScoredChunk{Text: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			hit.Metadata = metadataToMap(metadataGroups[0][i])
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// Chroma reports cosine distance; similarity is its complement.
			hit.Score = 1 - float32(distanceGroups[0][i])
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteByDoc removes every record tagged with the document. Used as the
// compensating cleanup after a partial ingestion failure and when a watched
// file is re-ingested.
func (x *ChromaIndex) DeleteByDoc(ctx context.Context, docID string) error {
	collection, err := x.getCollection()
	if err != nil {
		return err
	}
	where := chromago.EqString(docIDKey, docID)
	if err := collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete records for document %s: %w", docID, err)
	}
	return nil
}

// metadataToMap converts the opaque DocumentMetadata into a plain map by
// round-tripping through JSON; the struct exposes no direct accessor for
// its full value set.
func metadataToMap(meta chromago.DocumentMetadata) map[string]interface{} {
	if meta == nil {
		return map[string]interface{}{}
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("WARN: could not marshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		log.Printf("WARN: could not unmarshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	return m
}

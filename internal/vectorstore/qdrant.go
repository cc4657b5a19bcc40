package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/corpus"
	"portfolio-rag/internal/textutil"
)

// QdrantStore implements Store, LexicalSearcher and Writer on a Qdrant collection.
// Passage text and metadata live in the point payload.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	cfg        Config
}

// parseQdrantURL returns the gRPC host and port for an HTTP URL.
// The gRPC port is the HTTP port + 1 (6333 -> 6334).
func parseQdrantURL(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// NewQdrantStore creates a client for collection at urlStr ("http://host:port").
func NewQdrantStore(urlStr, collection string) (*QdrantStore, error) {
	host, port, err := parseQdrantURL(urlStr)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantStore{client: client, collection: collection, cfg: DefaultConfig()}, nil
}

// Tune applies cfg. Non-positive values fall back to the defaults.
func (s *QdrantStore) Tune(cfg Config) {
	s.cfg = cfg
}

func (s *QdrantStore) lexicalWeight() float64 {
	if s.cfg.LexicalWeight > 0 {
		return s.cfg.LexicalWeight
	}
	return DefaultLexicalWeight
}

// scanLimit is how many points a lexical scroll fetches for k results.
func (s *QdrantStore) scanLimit(k int) uint32 {
	factor := s.cfg.LexicalScanFactor
	if factor <= 0 {
		factor = DefaultLexicalScanFactor
	}
	return uint32(k * factor)
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// PointID maps a passage ID to a stable Qdrant UUID.
func PointID(passageID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(passageID)).String()
}

// EnsureCollection creates the collection and its payload indexes when missing,
// or validates the vector size of an existing one.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		indexes := map[string]qdrant.FieldType{
			"text": qdrant.FieldType_FieldTypeText,
			"file": qdrant.FieldType_FieldTypeKeyword,
		}
		for field, fieldType := range indexes {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: s.collection,
				FieldName:      field,
				FieldType:      fieldType.Enum(),
			})
			if err != nil {
				return fmt.Errorf("failed to create %s index: %w", field, err)
			}
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	var actualSize uint64
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if params := config.GetParams().GetVectorsConfig().GetParams(); params != nil {
			actualSize = params.GetSize()
		}
	}
	if actualSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(actualSize) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actualSize)
	}
	logger.InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", vectorSize)
	return nil
}

// Count returns the exact number of points.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Search runs a vector query with a score threshold. A zero vector or a floor
// no cosine can reach routes the query to LexicalSearch.
func (s *QdrantStore) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if q.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be greater than 0")
	}
	if IsZeroVector(q.Vector) || q.SimilarityFloor > 1 {
		return s.LexicalSearch(ctx, q.Text, q.TopK)
	}
	logger := contextutil.LoggerFromContext(ctx)

	floor := q.SimilarityFloor
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          qdrant.PtrOf(uint64(q.TopK)),
		ScoreThreshold: &floor,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to query points", "collection", s.collection, "top_k", q.TopK, "error", err)
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, resultFromPayload(p.GetPayload(), p.GetScore()))
	}
	logger.DebugContext(ctx, "qdrant search completed", "collection", s.collection, "results", len(results))
	return results, nil
}

// LexicalSearch scrolls points whose full-text index matches any query token and
// scores them by the share of query tokens they contain.
func (s *QdrantStore) LexicalSearch(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	tokens := textutil.ContentTokens(text, 3)
	if len(tokens) == 0 {
		return []SearchResult{}, nil
	}

	should := make([]*qdrant.Condition, 0, len(tokens))
	for _, token := range tokens {
		should = append(should, qdrant.NewMatchText("text", token))
	}
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         &qdrant.Filter{Should: should},
		Limit:          qdrant.PtrOf(s.scanLimit(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		r := resultFromPayload(p.GetPayload(), 0)
		r.Score = float32(tokenCoverage(tokens, r.Text) * s.lexicalWeight())
		results = append(results, r)
	}
	slices.SortFunc(results, func(a, b SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Upsert writes passages with their embeddings. Passages without an embedding are skipped.
func (s *QdrantStore) Upsert(ctx context.Context, passages []corpus.Passage) error {
	logger := contextutil.LoggerFromContext(ctx)

	points := make([]*qdrant.PointStruct, 0, len(passages))
	for _, p := range passages {
		if len(p.Embedding) == 0 {
			continue
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(p.ID)),
			Vectors: qdrant.NewVectors(p.Embedding...),
			Payload: qdrant.NewValueMap(payloadFromPassage(p)),
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	logger.InfoContext(ctx, "upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// DeleteByFile removes all points whose payload file equals file.
func (s *QdrantStore) DeleteByFile(ctx context.Context, file string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("file", file)},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for %s: %w", file, err)
	}
	return nil
}

func tokenCoverage(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	set := textutil.TokenSet(text)
	var hits int
	for _, token := range queryTokens {
		if _, ok := set[token]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func payloadFromPassage(p corpus.Passage) map[string]any {
	m := p.Metadata
	return map[string]any{
		"passage_id":  p.ID,
		"text":        p.Text,
		"file":        m.File,
		"source_name": m.SourceName,
		"source_type": string(m.SourceType),
		"tags":        stringsToAny(m.Tags),
		"role":        m.Role,
		"tech":        stringsToAny(m.Tech),
		"org":         m.Org,
		"product":     m.Product,
		"domain":      m.Domain,
		"kpis":        stringsToAny(m.KPIs),
		"aliases":     stringsToAny(m.Aliases),
		"link":        m.Link,
		"date":        m.Date,
		"chunk_index": int64(m.ChunkIndex),
	}
}

func resultFromPayload(payload map[string]*qdrant.Value, score float32) SearchResult {
	meta := convertPayloadToMap(payload)
	str := func(key string) string {
		v, _ := meta[key].(string)
		return v
	}
	list := func(key string) []string {
		items, _ := meta[key].([]any)
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	chunkIndex, _ := meta["chunk_index"].(int64)

	return SearchResult{
		ID:    str("passage_id"),
		Text:  str("text"),
		Score: score,
		Metadata: corpus.Metadata{
			File:       str("file"),
			SourceName: str("source_name"),
			SourceType: corpus.ParseSourceType(str("source_type")),
			Tags:       list("tags"),
			Role:       str("role"),
			Tech:       list("tech"),
			Org:        str("org"),
			Product:    str("product"),
			Domain:     str("domain"),
			KPIs:       list("kpis"),
			Aliases:    list("aliases"),
			Link:       str("link"),
			Date:       str("date"),
			ChunkIndex: int(chunkIndex),
		},
	}
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}

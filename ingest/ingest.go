package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/TFMV/fdgraph/models"
)

// Entity describes one vertex as delivered by the entity service
type Entity struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	Image string `json:"image"`
}

// Response is a batch of entities and the relations between them.
// Relations map source id -> property id -> target ids.
type Response struct {
	Entities   map[string]Entity              `json:"entities"`
	Properties map[string]string              `json:"properties"`
	Relations  map[string]map[string][]string `json:"relations"`
}

// Envelope wraps a Response the way the entity service returns it
type Envelope struct {
	Status string    `json:"status"`
	Data   *Response `json:"data"`
}

// Fetcher retrieves the neighbourhood of an entity
type Fetcher interface {
	FetchRelated(ctx context.Context, entityID string, depth, relationLimit int) (*Response, error)
}

// DataProcessor turns raw input bytes into a Response
type DataProcessor interface {
	// ProcessData parses data into entities and relations
	ProcessData(data []byte) (*Response, error)

	// GetName returns the name of the processor
	GetName() string
}

// MergeResult reports what a merge changed
type MergeResult struct {
	NewVertices  []string // ids added by this merge, in merge order
	EdgesCreated int      // relations that allocated a new edge
	LabelsMerged int      // relations folded into an existing edge
}

// PropertyLabel returns the display label of a property id, falling back to
// the id itself
func (r *Response) PropertyLabel(propertyID string) string {
	if label, ok := r.Properties[propertyID]; ok && label != "" {
		return label
	}
	return propertyID
}

// Len returns the number of entities in the response
func (r *Response) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Entities)
}

// ParseResponse decodes either an Envelope or a bare Response
func ParseResponse(data []byte) (*Response, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &resp, nil
}

// Merge adds the response's entities and relations to g. Entities already in
// the graph are kept as they are. Relations naming a vertex the graph does not
// hold are skipped. Keys are visited in sorted order so merges are
// reproducible.
func Merge(g *models.Graph, resp *Response) (MergeResult, error) {
	var result MergeResult
	if resp == nil {
		return result, nil
	}

	for _, id := range sortedKeys(resp.Entities) {
		e := resp.Entities[id]
		if _, added := g.AddVertex(id, e.Label, e.Type, e.Image); added {
			result.NewVertices = append(result.NewVertices, id)
		}
	}

	for _, sourceID := range sortedKeys(resp.Relations) {
		if _, ok := g.Vertex(sourceID); !ok {
			continue
		}
		props := resp.Relations[sourceID]
		for _, propertyID := range sortedKeys(props) {
			label := resp.PropertyLabel(propertyID)
			for _, targetID := range props[propertyID] {
				if _, ok := g.Vertex(targetID); !ok {
					continue
				}
				created, err := g.AddEdge(sourceID, targetID, label)
				if err != nil {
					return result, fmt.Errorf("error merging relation %s -> %s: %w", sourceID, targetID, err)
				}
				if created {
					result.EdgesCreated++
				} else {
					result.LabelsMerged++
				}
			}
		}
	}

	return result, nil
}

// JSONProcessor handles entity service JSON
type JSONProcessor struct{}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData parses an Envelope or a bare Response
func (p *JSONProcessor) ProcessData(data []byte) (*Response, error) {
	return ParseResponse(data)
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONProcessor{}, nil
	case "csv":
		return &CSVProcessor{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

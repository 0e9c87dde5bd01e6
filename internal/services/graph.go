package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/platform/neo4jdb"
	"github.com/yungbote/cognisync-backend/internal/types"
)

var (
	// ErrNotPermitted is returned when a learner asserts a relation between
	// concepts they have not interacted with.
	ErrNotPermitted = errors.New("learner has not interacted with both concepts")
	// ErrGraphUnavailable is returned when no graph store is configured.
	ErrGraphUnavailable = errors.New("concept graph store not configured")
)

const presentedFrequencyCap = 10

// cypherRunner is the slice of the Neo4j client the graph engine needs.
type cypherRunner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// GraphService maintains the per-learner concept graph in Neo4j:
// (:Learner)-[:INTERACTED_WITH]->(:Concept) interaction edges plus directed
// (:Concept)-[:REL]->(:Concept) relations. Concept identity is derived from
// the name via Slugify; two names normalizing to the same slug are treated
// as the same concept.
type GraphService struct {
	runner cypherRunner
	log    *logger.Logger
}

func NewGraphService(client *neo4jdb.Client, log *logger.Logger) *GraphService {
	s := &GraphService{log: log.With("service", "GraphService")}
	if client != nil && client.Driver != nil {
		s.runner = client
	}
	return s
}

var slugStrip = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)

// Slugify derives the stable concept identifier from a free-text name.
func Slugify(name string) string {
	cleaned := slugStrip.ReplaceAllString(name, "")
	slug := slugSpaces.ReplaceAllString(strings.TrimSpace(cleaned), "-")
	return "concept-" + slug
}

func (s *GraphService) available() bool {
	return s != nil && s.runner != nil
}

// UpsertConcepts merges the learner node, the concept nodes and the
// interaction edges for the given names. Existing edges get count+1 only;
// mastery and flag are never touched here.
func (s *GraphService) UpsertConcepts(ctx context.Context, learnerID string, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	if !s.available() {
		return 0, ErrGraphUnavailable
	}

	concepts := make([]map[string]any, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		concepts = append(concepts, map[string]any{
			"uid":         Slugify(name),
			"name":        name,
			"description": "Concept mentioned by a learner: " + name,
		})
	}
	if len(concepts) == 0 {
		return 0, nil
	}

	if _, err := s.runner.Write(ctx, `
MERGE (l:Learner {id: $learner_id})
ON CREATE SET l.createdAt = datetime()
`, map[string]any{"learner_id": learnerID}); err != nil {
		return 0, fmt.Errorf("merge learner node: %w", err)
	}

	rows, err := s.runner.Write(ctx, `
MATCH (l:Learner {id: $learner_id})
UNWIND $concepts AS concept
MERGE (c:Concept {uid: concept.uid})
ON CREATE SET
    c.name = concept.name,
    c.description = concept.description,
    c.createdAt = datetime()
ON MATCH SET
    c.name = concept.name,
    c.description = concept.description
MERGE (l)-[r:INTERACTED_WITH]->(c)
ON CREATE SET
    r.count = 1,
    r.mastery = 0.5,
    r.isFlagged = false,
    r.lastUpdated = datetime()
ON MATCH SET
    r.count = r.count + 1,
    r.lastUpdated = datetime()
RETURN count(DISTINCT r) AS touched
`, map[string]any{"learner_id": learnerID, "concepts": concepts})
	if err != nil {
		return 0, fmt.Errorf("upsert concepts: %w", err)
	}

	touched := 0
	if len(rows) > 0 {
		touched = int(rowInt(rows[0], "touched"))
	}
	s.log.Info("Upserted concepts", "learner_id", learnerID, "touched", touched)
	return touched, nil
}

// GetGraph returns the learner's interaction nodes plus the relations whose
// endpoints are both in the learner's interaction set. A missing learner
// yields an empty graph.
func (s *GraphService) GetGraph(ctx context.Context, learnerID string) (types.GraphData, error) {
	if !s.available() {
		return types.GraphData{}, ErrGraphUnavailable
	}

	var nodeRows, edgeRows []map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.runner.Read(gctx, `
MATCH (l:Learner {id: $learner_id})-[r:INTERACTED_WITH]->(c:Concept)
RETURN
    c.uid AS id,
    c.name AS name,
    COALESCE(c.description, '') AS description,
    r.mastery AS mastery,
    r.count AS count,
    COALESCE(r.isFlagged, false) AS isFlagged
ORDER BY r.lastUpdated DESC
`, map[string]any{"learner_id": learnerID})
		if err != nil {
			return fmt.Errorf("load graph nodes: %w", err)
		}
		nodeRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.runner.Read(gctx, `
MATCH (l:Learner {id: $learner_id})-[:INTERACTED_WITH]->(c1:Concept)
MATCH (l)-[:INTERACTED_WITH]->(c2:Concept)
MATCH (c1)-[:REL]->(c2)
RETURN DISTINCT c1.uid AS source, c2.uid AS target
`, map[string]any{"learner_id": learnerID})
		if err != nil {
			return fmt.Errorf("load graph edges: %w", err)
		}
		edgeRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.GraphData{}, err
	}

	nodes := make([]types.GraphNode, 0, len(nodeRows))
	for _, row := range nodeRows {
		nodes = append(nodes, rowToNode(row))
	}
	edges := make([]types.GraphEdge, 0, len(edgeRows))
	for _, row := range edgeRows {
		edges = append(edges, types.GraphEdge{Source: rowString(row, "source"), Target: rowString(row, "target")})
	}
	return types.GraphData{Nodes: nodes, Edges: edges}, nil
}

// CreateNode creates a concept (if needed) and a fresh interaction edge with
// caller-supplied mastery on the [0,100] UI scale.
func (s *GraphService) CreateNode(ctx context.Context, learnerID, name, description string, mastery float64) (*types.GraphNode, error) {
	if !s.available() {
		return nil, ErrGraphUnavailable
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("concept name is empty")
	}
	rows, err := s.runner.Write(ctx, `
MERGE (l:Learner {id: $learner_id})
ON CREATE SET l.createdAt = datetime()
MERGE (c:Concept {uid: $uid})
ON CREATE SET c.name = $name, c.description = $description, c.createdAt = datetime()
ON MATCH SET c.name = $name, c.description = $description
MERGE (l)-[r:INTERACTED_WITH]->(c)
ON CREATE SET r.count = 1, r.isFlagged = false
SET r.mastery = $mastery, r.lastUpdated = datetime()
RETURN c.uid AS id, c.name AS name, COALESCE(c.description, '') AS description,
       r.mastery AS mastery, r.count AS count, COALESCE(r.isFlagged, false) AS isFlagged
`, map[string]any{
		"learner_id":  learnerID,
		"uid":         Slugify(name),
		"name":        name,
		"description": description,
		"mastery":     masteryFromUI(mastery),
	})
	if err != nil {
		return nil, fmt.Errorf("create node: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	node := rowToNode(rows[0])
	return &node, nil
}

// UpdateNode mutates the learner's interaction edge (mastery on the [0,100]
// scale and/or the flag). Returns nil when the node is not in the learner's
// graph.
func (s *GraphService) UpdateNode(ctx context.Context, learnerID, nodeID string, mastery *float64, flagged *bool) (*types.GraphNode, error) {
	if !s.available() {
		return nil, ErrGraphUnavailable
	}

	setClauses := []string{}
	params := map[string]any{"learner_id": learnerID, "node_id": nodeID}
	if mastery != nil {
		setClauses = append(setClauses, "r.mastery = $mastery")
		params["mastery"] = masteryFromUI(*mastery)
	}
	if flagged != nil {
		setClauses = append(setClauses, "r.isFlagged = $isFlagged")
		params["isFlagged"] = *flagged
	}
	if len(setClauses) == 0 {
		return s.getNode(ctx, learnerID, nodeID)
	}
	setClauses = append(setClauses, "r.lastUpdated = datetime()")

	rows, err := s.runner.Write(ctx, fmt.Sprintf(`
MATCH (l:Learner {id: $learner_id})-[r:INTERACTED_WITH]->(c:Concept {uid: $node_id})
SET %s
RETURN c.uid AS id, c.name AS name, COALESCE(c.description, '') AS description,
       r.mastery AS mastery, r.count AS count, COALESCE(r.isFlagged, false) AS isFlagged
`, strings.Join(setClauses, ", ")), params)
	if err != nil {
		return nil, fmt.Errorf("update node: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	node := rowToNode(rows[0])
	return &node, nil
}

// DeleteNode removes the learner's interaction edge only. The shared concept
// node stays: other learners may still reference it.
func (s *GraphService) DeleteNode(ctx context.Context, learnerID, nodeID string) (bool, error) {
	if !s.available() {
		return false, ErrGraphUnavailable
	}
	rows, err := s.runner.Write(ctx, `
MATCH (l:Learner {id: $learner_id})-[r:INTERACTED_WITH]->(c:Concept {uid: $node_id})
DELETE r
RETURN count(r) AS deleted
`, map[string]any{"learner_id": learnerID, "node_id": nodeID})
	if err != nil {
		return false, fmt.Errorf("delete node: %w", err)
	}
	return len(rows) > 0 && rowInt(rows[0], "deleted") > 0, nil
}

// CreateEdge asserts a directed relation between two concepts. The learner
// must already have interaction edges to both endpoints.
func (s *GraphService) CreateEdge(ctx context.Context, learnerID, sourceID, targetID string) error {
	if !s.available() {
		return ErrGraphUnavailable
	}
	if err := s.requireBothEndpoints(ctx, learnerID, sourceID, targetID); err != nil {
		return err
	}
	_, err := s.runner.Write(ctx, `
MATCH (a:Concept {uid: $source_id})
MATCH (b:Concept {uid: $target_id})
MERGE (a)-[rel:REL]->(b)
ON CREATE SET rel.createdAt = datetime()
`, map[string]any{"source_id": sourceID, "target_id": targetID})
	if err != nil {
		return fmt.Errorf("create edge: %w", err)
	}
	return nil
}

// DeleteEdge removes a relation, subject to the same both-endpoints check.
// Returns false when no such relation existed.
func (s *GraphService) DeleteEdge(ctx context.Context, learnerID, sourceID, targetID string) (bool, error) {
	if !s.available() {
		return false, ErrGraphUnavailable
	}
	if err := s.requireBothEndpoints(ctx, learnerID, sourceID, targetID); err != nil {
		return false, err
	}
	rows, err := s.runner.Write(ctx, `
MATCH (a:Concept {uid: $source_id})-[rel:REL]->(b:Concept {uid: $target_id})
DELETE rel
RETURN count(rel) AS deleted
`, map[string]any{"source_id": sourceID, "target_id": targetID})
	if err != nil {
		return false, fmt.Errorf("delete edge: %w", err)
	}
	return len(rows) > 0 && rowInt(rows[0], "deleted") > 0, nil
}

func (s *GraphService) requireBothEndpoints(ctx context.Context, learnerID, sourceID, targetID string) error {
	rows, err := s.runner.Read(ctx, `
MATCH (l:Learner {id: $learner_id})
OPTIONAL MATCH (l)-[ra:INTERACTED_WITH]->(a:Concept {uid: $source_id})
OPTIONAL MATCH (l)-[rb:INTERACTED_WITH]->(b:Concept {uid: $target_id})
RETURN ra IS NOT NULL AND rb IS NOT NULL AS permitted
`, map[string]any{"learner_id": learnerID, "source_id": sourceID, "target_id": targetID})
	if err != nil {
		return fmt.Errorf("check edge permission: %w", err)
	}
	if len(rows) == 0 || !rowBool(rows[0], "permitted") {
		return ErrNotPermitted
	}
	return nil
}

func (s *GraphService) getNode(ctx context.Context, learnerID, nodeID string) (*types.GraphNode, error) {
	rows, err := s.runner.Read(ctx, `
MATCH (l:Learner {id: $learner_id})-[r:INTERACTED_WITH]->(c:Concept {uid: $node_id})
RETURN c.uid AS id, c.name AS name, COALESCE(c.description, '') AS description,
       r.mastery AS mastery, r.count AS count, COALESCE(r.isFlagged, false) AS isFlagged
`, map[string]any{"learner_id": learnerID, "node_id": nodeID})
	if err != nil {
		return nil, fmt.Errorf("load node: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	node := rowToNode(rows[0])
	return &node, nil
}

// Presentation conversions: mastery is stored on [0,1] and exposed on
// [0,100]; frequency is capped for display.

func masteryFromUI(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v / 100.0
}

func masteryToUI(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v * 100.0
}

func capFrequency(count int) int {
	if count > presentedFrequencyCap {
		return presentedFrequencyCap
	}
	return count
}

func rowToNode(row map[string]any) types.GraphNode {
	return types.GraphNode{
		ID:          rowString(row, "id"),
		Name:        rowString(row, "name"),
		Description: rowString(row, "description"),
		Mastery:     masteryToUI(rowFloat(row, "mastery")),
		Frequency:   capFrequency(int(rowInt(row, "count"))),
		IsFlagged:   rowBool(row, "isFlagged"),
	}
}

func rowString(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func rowInt(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func rowFloat(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func rowBool(row map[string]any, key string) bool {
	if v, ok := row[key].(bool); ok {
		return v
	}
	return false
}

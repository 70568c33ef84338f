// Package scripture defines the corpus data contract the export reads:
// verse nodes, directed cross-reference edges, and passage-group members.
//
// Stores (Neo4j, relational) implement Corpus; everything downstream of it
// is pure and works on the returned Snapshot.
package scripture

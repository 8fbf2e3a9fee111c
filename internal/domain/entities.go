// Package domain defines the core entities and ports of the enrichment
// pipeline: graph nodes, URL jobs, extraction records, and the error
// taxonomy the scheduler interprets.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// JobKind identifies the class of external resource a URL points at.
type JobKind string

const (
	KindVideo  JobKind = "video"
	KindSocial JobKind = "social"
	KindPDF    JobKind = "pdf"
)

// Kinds lists all job kinds in classification order.
var Kinds = []JobKind{KindVideo, KindSocial, KindPDF}

// Priority orders job dispatch. Lower value dispatches first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// Priorities lists all priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityNormal, PriorityLow}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// PriorityForKind assigns dispatch priority by resource kind.
func PriorityForKind(kind JobKind) Priority {
	switch kind {
	case KindVideo:
		return PriorityHigh
	case KindSocial:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// JobStatus is the lifecycle state of a URLJob.
type JobStatus string

const (
	JobPending     JobStatus = "pending"
	JobRunning     JobStatus = "running"
	JobRateLimited JobStatus = "rate_limited"
	JobCompleted   JobStatus = "completed"
	JobFailed      JobStatus = "failed"
)

// Terminal reports whether the status is a terminal bucket.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Property is a single key-value entry of a node or page property block.
// Properties keep insertion order, so they are modelled as an ordered slice
// rather than a map.
type Property struct {
	Key   string
	Value string
}

// Node is a leaf unit of outline content. It is loaded by the scanner,
// mutated only by the applier, and never mutated concurrently.
type Node struct {
	ID         string
	Body       string
	Properties []Property
	DocumentID string
	Depth      int
}

// Property returns the value for key and whether it is present.
func (n *Node) Property(key string) (string, bool) {
	for _, p := range n.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// SetProperty appends or replaces a property, preserving order.
func (n *Node) SetProperty(key, value string) {
	for i, p := range n.Properties {
		if p.Key == key {
			n.Properties[i].Value = value
			return
		}
	}
	n.Properties = append(n.Properties, Property{Key: key, Value: value})
}

// Enriched reports whether the node already carries at least one topic
// property with the given prefix (for example "topic-1"). Enriched nodes are
// skipped by both scanner and applier, which makes re-runs safe.
func (n *Node) Enriched(prefix string) bool {
	p := prefix + "-"
	for _, kv := range n.Properties {
		if strings.HasPrefix(kv.Key, p) {
			return true
		}
	}
	return false
}

// Document is a parsed outline markdown file.
type Document struct {
	ID         string
	Path       string
	Properties []Property
	Nodes      []*Node
	Journal    bool
}

// NodeRef addresses a node without holding a reference to it. Workers pass
// refs around; only the applier resolves them back to nodes.
type NodeRef struct {
	NodeID       string
	DocumentID   string
	DocumentPath string
}

// NodeUpdate is the list of extraction records resolved for one node
// during a run.
type NodeUpdate struct {
	Ref     NodeRef
	Records []ExtractionRecord
}

// URLJob is the scheduler's unit of work, keyed by (kind, url). Identical
// URLs of the same kind collapse to a single job; every owning node is
// recorded so one extraction can feed several nodes.
type URLJob struct {
	ID             string
	Kind           JobKind
	URL            string
	Owners         []NodeRef
	Priority       Priority
	Attempts       int
	NextEligibleAt time.Time
	Status         JobStatus
}

// JobID derives the stable job identifier for a (kind, url) pair.
func JobID(kind JobKind, url string) string {
	sum := sha256.Sum256([]byte(string(kind) + "|" + url))
	return hex.EncodeToString(sum[:8])
}

// NewURLJob builds a pending job for a URL found in the given node.
func NewURLJob(kind JobKind, url string, owner NodeRef) *URLJob {
	return &URLJob{
		ID:       JobID(kind, url),
		Kind:     kind,
		URL:      url,
		Owners:   []NodeRef{owner},
		Priority: PriorityForKind(kind),
		Status:   JobPending,
	}
}

// ResourceKey identifies the upstream quota pool a job draws from. One key
// per kind is the minimum discrimination; callers may refine per host.
func (j *URLJob) ResourceKey() string {
	return string(j.Kind)
}

// ExtractionRecord is the normalized output of an extractor. Zero values
// mean unknown, not empty.
type ExtractionRecord struct {
	Kind        JobKind
	URL         string
	Title       string
	Author      string
	CreatedAt   *time.Time
	Duration    time.Duration
	PageCount   int
	SizeBytes   int64
	PreviewText string
	PlatformTag string
	ExtractedAt time.Time
}

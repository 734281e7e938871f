package htb

import (
	"log/slog"

	htberrors "github.com/vnykmshr/htb/pkg/common/errors"
	"github.com/vnykmshr/htb/pkg/common/validation"
)

// NodeSpec declares one bucket of a Tree.
type NodeSpec struct {
	// Name identifies the bucket within the tree.
	Name string

	// Parent names an earlier NodeSpec. Empty makes the bucket a root.
	Parent string

	// Rate is the bucket's rate and capacity.
	Rate Limit
}

// Oversubscription reports a parent whose children are promised more than
// the parent can supply.
type Oversubscription struct {
	Parent       string
	ParentRate   Limit
	ChildrenRate Limit
	Children     []string
}

// TreeOption configures NewTree.
type TreeOption func(*treeOptions)

type treeOptions struct {
	clock  Clock
	logger *slog.Logger
}

// WithClock sets the clock shared by every bucket of the tree.
func WithClock(clock Clock) TreeOption {
	return func(o *treeOptions) {
		o.clock = clock
	}
}

// WithLogger sets the logger shared by every bucket of the tree.
func WithLogger(logger *slog.Logger) TreeOption {
	return func(o *treeOptions) {
		o.logger = logger
	}
}

// Tree is a set of named buckets built once from a flat declaration.
// Its shape cannot change after NewTree returns.
type Tree struct {
	buckets  map[string]*Bucket
	parents  map[string]string
	order    []string
	children map[string][]string
}

// NewTree builds the buckets declared by nodes in slice order. A node's
// parent must be declared before it, which also rules out cycles.
//
// Children whose rates add up to more than their parent's are accepted,
// since borrowing makes that a legitimate setup, but each such parent is
// logged as a warning and listed by Oversubscribed.
func NewTree(nodes []NodeSpec, opts ...TreeOption) (*Tree, error) {
	var o treeOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree{
		buckets:  make(map[string]*Bucket, len(nodes)),
		parents:  make(map[string]string, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		children: make(map[string][]string),
	}

	for _, node := range nodes {
		if err := validation.ValidateNotEmpty("htb", "name", node.Name); err != nil {
			return nil, err
		}
		if _, dup := t.buckets[node.Name]; dup {
			return nil, htberrors.NewValidationError("htb", "name", node.Name, "duplicate bucket name").
				WithHint("give every bucket in the tree a unique name")
		}

		config := Config{Rate: node.Rate}
		if node.Parent != "" {
			parent, ok := t.buckets[node.Parent]
			if !ok {
				return nil, htberrors.NewValidationError("htb", "parent", node.Parent, "unknown bucket").
					WithHint("declare parents before their children")
			}
			config.Parent = parent
		} else {
			config.Clock = o.clock
			config.Logger = o.logger
		}

		b, err := NewWithConfigSafe(config)
		if err != nil {
			return nil, htberrors.NewOperationError("htb", "NewTree", err).WithContext("bucket " + node.Name)
		}

		t.buckets[node.Name] = b
		t.parents[node.Name] = node.Parent
		t.order = append(t.order, node.Name)
		if node.Parent != "" {
			t.children[node.Parent] = append(t.children[node.Parent], node.Name)
		}
	}

	for _, over := range t.Oversubscribed() {
		t.buckets[over.Parent].logger.Warn("children rates exceed parent rate",
			"parent", over.Parent,
			"parent_rate", float64(over.ParentRate),
			"children_rate", float64(over.ChildrenRate),
			"children", over.Children)
	}

	return t, nil
}

// Bucket returns the bucket declared under name.
func (t *Tree) Bucket(name string) (*Bucket, bool) {
	b, ok := t.buckets[name]
	return b, ok
}

// Names returns bucket names in declaration order.
func (t *Tree) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Parent returns the name of the bucket's parent, empty for a root.
func (t *Tree) Parent(name string) string {
	return t.parents[name]
}

// Children returns the names of the direct children of name.
func (t *Tree) Children(name string) []string {
	out := make([]string, len(t.children[name]))
	copy(out, t.children[name])
	return out
}

// Oversubscribed lists, in declaration order, every parent whose children's
// configured rates sum to more than the parent's effective rate.
func (t *Tree) Oversubscribed() []Oversubscription {
	var out []Oversubscription

	for _, name := range t.order {
		kids := t.children[name]
		if len(kids) == 0 {
			continue
		}

		var sum Limit
		for _, kid := range kids {
			sum += t.buckets[kid].Rate()
		}

		// A chain without any rate reports 0 here.
		parentRate, _ := t.buckets[name].EffectiveRate()
		if sum > parentRate {
			out = append(out, Oversubscription{
				Parent:       name,
				ParentRate:   parentRate,
				ChildrenRate: sum,
				Children:     t.Children(name),
			})
		}
	}

	return out
}

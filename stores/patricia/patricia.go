// Package patricia provides an in-memory binary patricia tree keyed by byte
// strings, parameterized over the key and value types it stores. Entries
// iterate in ascending key order and the full contents commit to a single
// hash, so two trees holding the same entries produce the same digest
// regardless of insertion order.
package patricia

import (
	"bytes"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-coinset/errors"
)

// ErrKeyPrefix is returned from Set or Delete if the key provided is a
// prefix to existing keys. Fixed-width key types can never trigger it.
var ErrKeyPrefix = errors.New(errors.ERR_STORAGE_ERROR, "key provided is a prefix to other keys")

// Tree is a radix tree with a radix of 2. Each bit of the serialized key
// indicates a path; leaves keep the typed key and value so iteration hands
// them back without re-decoding.
type Tree[K any, V any] struct {
	root  *node[K, V]
	size  int
	keyFn func(K) []byte
	valFn func(V) []byte
}

type node[K any, V any] struct {
	key      []uint8 // bit key, one byte per bit
	hash     *chainhash.Hash
	isLeaf   bool
	children [2]*node[K, V]
	k        K
	v        V
}

// NewTree returns an empty tree. keyFn and valFn produce the canonical byte
// serialization of keys and values; keyFn must be injective.
func NewTree[K any, V any](keyFn func(K) []byte, valFn func(V) []byte) *Tree[K, V] {
	return &Tree[K, V]{
		keyFn: keyFn,
		valFn: valFn,
	}
}

// Len returns the number of entries in the tree.
func (t *Tree[K, V]) Len() int {
	return t.size
}

// Get looks up the value stored under k.
func (t *Tree[K, V]) Get(k K) (V, bool) {
	var zero V

	if t.root == nil {
		return zero, false
	}

	n := t.root
	key := bitKey(t.keyFn(k))

	for {
		if bytes.Equal(n.key, key) {
			if !n.isLeaf {
				return zero, false
			}

			return n.v, true
		}

		if !bytes.HasPrefix(key, n.key) || n.isLeaf {
			return zero, false
		}

		n = n.children[key[len(n.key)]]
	}
}

// Set stores v under k, replacing any existing value.
func (t *Tree[K, V]) Set(k K, v V) error {
	key := bitKey(t.keyFn(k))

	if t.root == nil {
		t.root = &node[K, V]{key: key, isLeaf: true, k: k, v: v}
		t.size++

		return nil
	}

	root, created, err := t.insert(t.root, key, k, v)
	if err != nil {
		return err
	}

	t.root = root
	if created {
		t.size++
	}

	return nil
}

func (t *Tree[K, V]) insert(n *node[K, V], key []uint8, k K, v V) (*node[K, V], bool, error) {
	if bytes.Equal(n.key, key) {
		if !n.isLeaf {
			return n, false, ErrKeyPrefix
		}

		return &node[K, V]{key: n.key, isLeaf: true, k: k, v: v}, false, nil
	}

	if bytes.HasPrefix(key, n.key) {
		if n.isLeaf {
			return n, false, ErrKeyPrefix
		}

		bit := key[len(n.key)]

		child, created, err := t.insert(n.children[bit], key, k, v)
		if err != nil {
			return n, false, err
		}

		newNode := new(node[K, V])
		*newNode = *n
		newNode.hash = nil
		newNode.children[bit] = child

		return newNode, created, nil
	}

	// Keys diverge inside this node's label: split it
	common := commonPrefixLen(n.key, key)

	if common == len(key) {
		// The new key is a strict prefix of the node's label
		return n, false, ErrKeyPrefix
	}

	newNode := &node[K, V]{key: n.key[:common]}
	newNode.children[key[common]] = &node[K, V]{key: key, isLeaf: true, k: k, v: v}
	newNode.children[1-key[common]] = n

	return newNode, true, nil
}

// Delete removes the value with a matching key, if any.
func (t *Tree[K, V]) Delete(k K) error {
	if t.root == nil {
		return nil
	}

	key := bitKey(t.keyFn(k))

	root, deleted, err := t.delete(t.root, key)
	if err != nil {
		return err
	}

	t.root = root
	if deleted {
		t.size--
	}

	return nil
}

func (t *Tree[K, V]) delete(n *node[K, V], key []uint8) (*node[K, V], bool, error) {
	if bytes.Equal(key, n.key) {
		if !n.isLeaf {
			return n, false, ErrKeyPrefix
		}

		return nil, true, nil
	}

	if !bytes.HasPrefix(key, n.key) || n.isLeaf {
		return n, false, nil
	}

	bit := key[len(n.key)]

	newChild, deleted, err := t.delete(n.children[bit], key)
	if err != nil {
		return nil, false, err
	}

	if newChild == nil {
		// Collapse the single remaining branch into the parent
		return n.children[1-bit], deleted, nil
	}

	newNode := new(node[K, V])
	*newNode = *n
	newNode.hash = nil
	newNode.children[bit] = newChild

	return newNode, deleted, nil
}

// WalkFunc is called for every entry visited by Walk. Returning an error
// stops the walk and propagates the error.
type WalkFunc[K any, V any] func(k K, v V) error

// Walk visits every entry in ascending key order.
func (t *Tree[K, V]) Walk(fn WalkFunc[K, V]) error {
	if t.root == nil {
		return nil
	}

	return walk(t.root, fn)
}

func walk[K any, V any](n *node[K, V], fn WalkFunc[K, V]) error {
	if n.isLeaf {
		return fn(n.k, n.v)
	}

	if err := walk(n.children[0], fn); err != nil {
		return err
	}

	return walk(n.children[1], fn)
}

// RootHash returns the digest committing to the full contents of the tree.
// The empty tree digests to the zero hash.
func (t *Tree[K, V]) RootHash() chainhash.Hash {
	if t.root == nil {
		return chainhash.Hash{}
	}

	return t.hashNode(t.root)
}

func (t *Tree[K, V]) hashNode(n *node[K, V]) chainhash.Hash {
	if n.hash != nil {
		return *n.hash
	}

	var hash chainhash.Hash

	if n.isLeaf {
		preimage := t.keyFn(n.k)
		preimage = append(preimage, t.valFn(n.v)...)
		hash = chainhash.DoubleHashH(preimage)
	} else {
		left := t.hashNode(n.children[0])
		right := t.hashNode(n.children[1])
		hash = chainhash.DoubleHashH(append(left[:], right[:]...))
	}

	n.hash = &hash

	return hash
}

// bitKey expands a byte key into one byte per bit, most significant first.
func bitKey(byteKey []byte) []uint8 {
	key := make([]uint8, 0, len(byteKey)*8)

	for _, b := range byteKey {
		for i := uint(0); i < 8; i++ {
			key = append(key, (b>>(7-i))&1)
		}
	}

	return key
}

func commonPrefixLen(a, b []uint8) int {
	var i int
	for i = 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
	}

	return i
}

// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical key space over a kv store, by prefixing all keys.
type Bucket string

type bucketGetter struct {
	b   Bucket
	src Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(g.b.key(key))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(g.b.key(key))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

func (g *bucketGetter) NewIterator(r Range) Iterator {
	return &bucketIterator{g.b, g.src.NewIterator(g.b.rng(r))}
}

type bucketPutter struct {
	b   Bucket
	src Putter
}

func (p *bucketPutter) Put(key, value []byte) error {
	return p.src.Put(p.b.key(key), value)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(p.b.key(key))
}

type bucketIterator struct {
	b   Bucket
	src Iterator
}

func (i *bucketIterator) Next() bool    { return i.src.Next() }
func (i *bucketIterator) Release()      { i.src.Release() }
func (i *bucketIterator) Error() error  { return i.src.Error() }
func (i *bucketIterator) Key() []byte   { return i.src.Key()[len(i.b):] }
func (i *bucketIterator) Value() []byte { return i.src.Value() }

func (b Bucket) key(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

func (b Bucket) rng(r Range) Range {
	from := append([]byte(b), r.From...)
	var to []byte
	if len(r.To) == 0 {
		to = util.BytesPrefix([]byte(b)).Limit
	} else {
		to = append([]byte(b), r.To...)
	}
	return Range{From: from, To: to}
}

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{b, src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{b, src}
}

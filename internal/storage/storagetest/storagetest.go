// Package storagetest provides in-memory KV, blob and vector stores for
// tests of code built on the storage facade.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

var ErrInjected = fmt.Errorf("injected failure: %w", perrors.ErrUnavailable)

type kvEntry struct {
	value     []byte
	list      [][]byte
	expiresAt time.Time
}

// KV is an expiring in-memory key-value store. Now can be replaced to move
// time forward.
type KV struct {
	mu      sync.Mutex
	data    map[string]*kvEntry
	Now     func() time.Time
	PingErr error
}

func NewKV() *KV {
	return &KV{data: map[string]*kvEntry{}, Now: time.Now}
}

func (k *KV) live(key string) *kvEntry {
	e, ok := k.data[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !k.Now().Before(e.expiresAt) {
		delete(k.data, key)
		return nil
	}
	return e
}

func (k *KV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return k.Now().Add(ttl)
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.live(key)
	if e == nil || e.value == nil {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (k *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = &kvEntry{value: append([]byte(nil), value...), expiresAt: k.expiry(ttl)}
	return nil
}

func (k *KV) Delete(_ context.Context, keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, key := range keys {
		delete(k.data, key)
	}
	return nil
}

func (k *KV) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.live(key)
	if e == nil {
		e = &kvEntry{value: []byte("0"), expiresAt: k.expiry(window)}
		k.data[key] = e
	}
	n, _ := strconv.ParseInt(string(e.value), 10, 64)
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	var ttl time.Duration
	if !e.expiresAt.IsZero() {
		ttl = e.expiresAt.Sub(k.Now())
	}
	return n, ttl, nil
}

func (k *KV) PushCapped(_ context.Context, key string, value []byte, max int, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.live(key)
	if e == nil {
		e = &kvEntry{}
		k.data[key] = e
	}
	e.list = append(e.list, append([]byte(nil), value...))
	if max > 0 && len(e.list) > max {
		e.list = e.list[len(e.list)-max:]
	}
	if ttl > 0 {
		e.expiresAt = k.expiry(ttl)
	}
	return nil
}

func (k *KV) Range(_ context.Context, key string) ([][]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.live(key)
	if e == nil {
		return nil, nil
	}
	out := make([][]byte, len(e.list))
	copy(out, e.list)
	return out, nil
}

func (k *KV) Ping(context.Context) error { return k.PingErr }

// TTL returns the remaining lifetime of key, or -1 when it has none.
func (k *KV) TTL(key string) time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.live(key)
	if e == nil || e.expiresAt.IsZero() {
		return -1
	}
	return e.expiresAt.Sub(k.Now())
}

func (k *KV) Has(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.live(key) != nil
}

// Blob is an in-memory object store. FailPut, when set, is consulted before
// every Put and its error returned.
type Blob struct {
	mu      sync.Mutex
	objects map[string][]byte
	FailPut func(key string) error
	PingErr error
}

func NewBlob() *Blob {
	return &Blob{objects: map[string][]byte{}}
}

func (b *Blob) Put(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPut != nil {
		if err := b.FailPut(key); err != nil {
			return err
		}
	}
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *Blob) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, perrors.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (b *Blob) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *Blob) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *Blob) DeletePrefix(_ context.Context, prefix string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			delete(b.objects, k)
		}
	}
	return nil
}

func (b *Blob) Ping(context.Context) error { return b.PingErr }

func (b *Blob) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// Vector is an in-memory vector index scoring by cosine similarity.
type Vector struct {
	mu          sync.Mutex
	spaces      map[string]map[string]vector.Vector
	UpsertCalls int
	PingErr     error
}

var _ vector.Store = (*Vector)(nil)

func NewVector() *Vector {
	return &Vector{spaces: map[string]map[string]vector.Vector{}}
}

func (v *Vector) space(ns string) map[string]vector.Vector {
	s, ok := v.spaces[ns]
	if !ok {
		s = map[string]vector.Vector{}
		v.spaces[ns] = s
	}
	return s
}

func (v *Vector) Upsert(_ context.Context, ns string, vs []vector.Vector) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.UpsertCalls++
	s := v.space(ns)
	for _, x := range vs {
		s[x.ID] = x
	}
	return nil
}

func (v *Vector) Query(_ context.Context, ns string, q []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []vector.Match
	for _, x := range v.space(ns) {
		if !matches(x.Metadata, filter) {
			continue
		}
		out = append(out, vector.Match{ID: x.ID, Score: cosine(q, x.Values), Metadata: x.Metadata})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (v *Vector) Fetch(_ context.Context, ns string, ids []string) ([]vector.Vector, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []vector.Vector
	for _, id := range ids {
		if x, ok := v.space(ns)[id]; ok {
			out = append(out, x)
		}
	}
	return out, nil
}

func (v *Vector) DeleteIDs(_ context.Context, ns string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		delete(v.space(ns), id)
	}
	return nil
}

func (v *Vector) DeleteByFilter(_ context.Context, ns string, filter vector.Filter) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.space(ns)
	for id, x := range s {
		if matches(x.Metadata, filter) {
			delete(s, id)
		}
	}
	return nil
}

func (v *Vector) Ping(context.Context) error { return v.PingErr }

func (v *Vector) Len(ns string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.space(ns))
}

func matches(meta map[string]any, filter vector.Filter) bool {
	for k, want := range filter {
		got := meta[k]
		if list, ok := want.([]string); ok {
			found := false
			for _, w := range list {
				if got == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Embedder maps text to a small deterministic vector so similar strings
// land near each other in tests.
type Embedder struct {
	Err   error
	Calls int
	mu    sync.Mutex
}

func (e *Embedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	e.mu.Lock()
	e.Calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		vec := make([]float32, 8)
		for _, r := range strings.ToLower(in) {
			vec[int(r)%8]++
		}
		out[i] = vec
	}
	return out, nil
}

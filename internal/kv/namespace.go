// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package kv

import (
	"errors"
	"strings"
)

// Namespaced prefixes every key with "<prefix>:" so several applications can
// share one durable store without colliding.
type Namespaced struct {
	inner  Store
	prefix string
}

// WithNamespace wraps s. An empty prefix returns s unchanged.
func WithNamespace(s Store, prefix string) Store {
	if prefix == "" || s == nil {
		return s
	}
	return &Namespaced{inner: s, prefix: prefix + ":"}
}

func (n *Namespaced) Get(key string) (string, bool, error) {
	return n.inner.Get(n.prefix + key)
}

func (n *Namespaced) Set(key, value string) error {
	return n.inner.Set(n.prefix+key, value)
}

func (n *Namespaced) Available() bool {
	return IsAvailable(n.inner)
}

func (n *Namespaced) Delete(key string) error {
	d, ok := n.inner.(Deleter)
	if !ok {
		return errors.ErrUnsupported
	}
	return d.Delete(n.prefix + key)
}

// Keys returns the keys inside the namespace with the prefix stripped.
func (n *Namespaced) Keys() ([]string, error) {
	l, ok := n.inner.(Lister)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	all, err := l.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if rest, found := strings.CutPrefix(k, n.prefix); found {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}

// Close closes the wrapped store when it supports closing.
func (n *Namespaced) Close() error {
	if c, ok := n.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package nav decides on which routes the navigation bar is shown.
package nav

import "strings"

// Rules lists the routes without navigation. A prefix matches whole path
// segments only: "/auth" hides "/auth" and "/auth/callback" but not
// "/authors".
type Rules struct {
	HiddenPrefixes []string
	HiddenExact    []string
}

// Normalize trims whitespace, query and fragment, ensures a leading slash
// and drops trailing slashes. The empty route is "/".
func Normalize(route string) string {
	route = strings.TrimSpace(route)
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	for len(route) > 1 && strings.HasSuffix(route, "/") {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}

// Visible reports whether the navigation bar is shown on route.
func Visible(route string, rules Rules) bool {
	route = Normalize(route)
	for _, e := range rules.HiddenExact {
		if route == Normalize(e) {
			return false
		}
	}
	for _, p := range rules.HiddenPrefixes {
		p = Normalize(p)
		if p == "/" {
			return false
		}
		if route == p || strings.HasPrefix(route, p+"/") {
			return false
		}
	}
	return true
}

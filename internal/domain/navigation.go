package domain

import "strings"

// Steps of the supplier portal.
const (
	RouteLogin            = "/login"
	RouteProductSelection = "/"
	RouteProfile          = "/profile"
	RouteSuccess          = "/success"
	RouteDashboard        = "/dashboard"
	RouteAddProducts      = "/add-products"
)

// NoticeSelectProducts blocks the profile step until products were added.
const NoticeSelectProducts = "Please select products first!"

// maxRedirectHops bounds the fixed-point resolution; the policy settles in two.
const maxRedirectHops = 4

// GateInput is everything the step gate looks at besides the path.
type GateInput struct {
	IsAuthenticated bool
	HasSupplierData bool
	HasProducts     bool
}

// RouteDecision is where a requested path actually lands.
type RouteDecision struct {
	Requested  string `json:"requested"`
	Path       string `json:"path"`
	Redirected bool   `json:"redirected"`
	Notice     string `json:"notice,omitempty"`
}

// ResolveRoute applies the step gate to a requested path. It is a pure function
// of its arguments: the same input always lands on the same step. Redirect
// targets are themselves re-checked until the destination is stable.
func ResolveRoute(in GateInput, requested string) RouteDecision {
	d := RouteDecision{Requested: requested, Path: normalizePath(requested)}
	if d.Path != requested {
		d.Redirected = true
	}

	for i := 0; i < maxRedirectHops; i++ {
		next, notice := gate(in, d.Path)
		if notice != "" && d.Notice == "" {
			d.Notice = notice
		}
		if next == d.Path {
			break
		}
		d.Path = next
		d.Redirected = true
	}
	return d
}

// HomeRoute is the landing step for an authenticated user.
func HomeRoute(hasSupplierData bool) string {
	if hasSupplierData {
		return RouteDashboard
	}
	return RouteProductSelection
}

func gate(in GateInput, path string) (string, string) {
	if !in.IsAuthenticated {
		return RouteLogin, ""
	}

	switch path {
	case RouteLogin:
		return HomeRoute(in.HasSupplierData), ""
	case RouteProductSelection:
		if in.HasSupplierData {
			return RouteDashboard, ""
		}
	case RouteDashboard:
		if !in.HasSupplierData {
			return RouteProductSelection, ""
		}
	case RouteProfile:
		if !in.HasProducts {
			return RouteProductSelection, NoticeSelectProducts
		}
	case RouteAddProducts:
		if !in.HasSupplierData {
			return RouteProductSelection, ""
		}
	case RouteSuccess:
	default:
		return HomeRoute(in.HasSupplierData), ""
	}
	return path, ""
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return RouteProductSelection
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

package session

import "path"

// Decision is what a route guard does with a request.
type Decision int

const (
	DecisionRender Decision = iota
	DecisionLoading
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	}
	return "unknown"
}

// Decide gates a protected page. It never redirects while the snapshot is loading
// and never redirects the login page itself.
func Decide(snap Snapshot, requestPath, loginPath string) Decision {
	if snap.IsLoading {
		return DecisionLoading
	}
	if !snap.IsAuthenticated && !samePath(requestPath, loginPath) {
		return DecisionRedirect
	}
	return DecisionRender
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return path.Clean("/"+a) == path.Clean("/"+b)
}

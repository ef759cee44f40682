// Package backend is a typed client for the indexing backend's REST API.
//
// The backend owns project persistence, the indexing pipeline and plan
// generation. This package only speaks its HTTP interface:
//
//   - Projects: list, get, create, delete, trigger indexing
//   - Search: semantic search over an indexed project
//   - Plans: generate, get, list by project
//
// [Client] satisfies [indexwatch.Backend], so it can be handed directly to
// [indexwatch.WithBackend]:
//
//	client, err := backend.NewClient("http://localhost:8000")
//	if err != nil {
//	    return err
//	}
//	tr, err := indexwatch.New(indexwatch.WithBackend(client))
//
// Non-2xx responses are returned as [*APIError]; 404s also match
// [ErrNotFound] via errors.Is.
package backend

package collection

import (
	"strings"

	"github.com/studiowebux/apiquest/internal/types"
)

// Mutation changes a single request. Mutations are applied to a copy first so
// the caller can persist before committing the change in memory.
type Mutation func(*types.Request) error

// SetAuthType switches the auth scheme, resetting the Basic payload
func SetAuthType(t types.AuthType) Mutation {
	return func(r *types.Request) error {
		r.Details.SetAuthType(t)
		return nil
	}
}

// SetField writes one of the free-text fields. Username and password are
// ignored unless the request uses Basic auth.
func SetField(field types.TextField, value string) Mutation {
	return func(r *types.Request) error {
		switch field {
		case types.TextURL:
			r.Details.URL = value
		case types.TextBody:
			r.Details.Body = value
		case types.TextUsername:
			if r.Details.Basic != nil {
				r.Details.Basic.Username = value
			}
		case types.TextPassword:
			if r.Details.Basic != nil {
				r.Details.Basic.Password = value
			}
		}
		r.Details.SyncAuthorization()
		return nil
	}
}

// SetMethod changes the HTTP method
func SetMethod(method types.Method) Mutation {
	return func(r *types.Request) error {
		r.Method = method
		return nil
	}
}

// UpsertHeader adds or replaces a header. The Authorization header is
// rejected in any casing.
func UpsertHeader(key, value string) Mutation {
	return func(r *types.Request) error {
		key = strings.TrimSpace(key)
		if types.IsAuthorizationHeader(key) {
			return ErrReservedHeader
		}
		if key == "" || value == "" {
			return ErrEmptyKey
		}
		if r.Details.Headers == nil {
			r.Details.Headers = make(map[string]string)
		}
		r.Details.Headers[key] = value
		return nil
	}
}

// RemoveHeader deletes a user header; the derived Authorization header stays
func RemoveHeader(key string) Mutation {
	return func(r *types.Request) error {
		if types.IsAuthorizationHeader(key) {
			return ErrReservedHeader
		}
		delete(r.Details.Headers, key)
		return nil
	}
}

// UpsertParam adds or replaces a query parameter
func UpsertParam(key, value string) Mutation {
	return func(r *types.Request) error {
		key = strings.TrimSpace(key)
		if key == "" || value == "" {
			return ErrEmptyKey
		}
		if r.Details.Params == nil {
			r.Details.Params = make(map[string]string)
		}
		r.Details.Params[key] = value
		return nil
	}
}

// RemoveParam deletes a query parameter
func RemoveParam(key string) Mutation {
	return func(r *types.Request) error {
		delete(r.Details.Params, key)
		return nil
	}
}

// Chain applies mutations in order, stopping at the first error
func Chain(mutations ...Mutation) Mutation {
	return func(r *types.Request) error {
		for _, m := range mutations {
			if err := m(r); err != nil {
				return err
			}
		}
		return nil
	}
}

package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	tabIDKey    contextKey = "tab_id"
	clientIDKey contextKey = "client_id"
)

func SetTabID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tabIDKey, id)
}

// GetTabID returns the tab set by Identify.
func GetTabID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(tabIDKey).(string)
	return id, ok && id != ""
}

func SetClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// GetClientID returns the durable client set by Identify.
func GetClientID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(clientIDKey).(string)
	return id, ok && id != ""
}

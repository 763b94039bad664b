package httpclient

import (
	"net/url"
	"strings"
)

// QueryParam is one key/value pair of a query string
type QueryParam struct {
	Key   string
	Value string
}

// Query is an ordered set of query parameters. Unlike url.Values it keeps
// insertion order when encoded.
type Query []QueryParam

// Set replaces the value of key, appending it when absent.
func (q *Query) Set(key, value string) {
	for i := range *q {
		if (*q)[i].Key == key {
			(*q)[i].Value = value
			return
		}
	}
	*q = append(*q, QueryParam{Key: key, Value: value})
}

// Get returns the value of key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Encode renders the query in insertion order using standard percent-encoding.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func buildURL(baseURL, path string, query Query) string {
	u := strings.TrimRight(baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

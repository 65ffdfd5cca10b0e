package research

import (
	"strings"

	"github.com/anatolykoptev/go_harvest/internal/engine/paging"
)

// Condition is one leaf of the research API query predicate tree.
type Condition struct {
	Operation   string   `json:"operation"`
	FieldName   string   `json:"field_name"`
	FieldValues []string `json:"field_values"`
}

// Query is a conjunction of conditions.
type Query struct {
	And []Condition `json:"and"`
}

// Eq builds an EQ condition.
func Eq(field string, values ...string) Condition {
	return Condition{Operation: "EQ", FieldName: field, FieldValues: values}
}

// HashtagQuery matches videos tagged hashtag and created inside w.
func HashtagQuery(hashtag string, w paging.DateWindow) Query {
	return Query{And: []Condition{
		Eq("hashtag_name", hashtag),
		{Operation: "GTE", FieldName: "create_date", FieldValues: []string{w.StartString()}},
		{Operation: "LTE", FieldName: "create_date", FieldValues: []string{w.EndString()}},
	}}
}

// UsernameQuery matches videos published by username.
func UsernameQuery(username string) Query {
	return Query{And: []Condition{Eq("username", username)}}
}

// endpointURL appends the fields selector to an endpoint path.
func endpointURL(base, path string, fields []string) string {
	return strings.TrimRight(base, "/") + path + "?fields=" + strings.Join(fields, ",")
}

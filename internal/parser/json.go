package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/sportsfeed/internal/record"
)

// oneOrMany decodes a value the provider renders as an object when there is
// a single element and as an array otherwise.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := sonic.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := sonic.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

type jsonObject = map[string]any

type jsonCategory struct {
	Name    string                `json:"name"`
	AtName  string                `json:"@name"`
	ID      any                   `json:"id"`
	AtID    any                   `json:"@id"`
	Match   oneOrMany[jsonObject] `json:"match"`
	Matches struct {
		Match oneOrMany[jsonObject] `json:"match"`
	} `json:"matches"`
}

type jsonLive struct {
	Scores struct {
		Category oneOrMany[jsonCategory] `json:"category"`
	} `json:"scores"`
}

// ParseLiveJSON reads {scores:{category:[{name,id,match}]}} where category and
// match may each be a single object or an array. Keys are accepted with or
// without the "@" attribute prefix.
func ParseLiveJSON(payload []byte) ([]record.LiveMatch, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, parseErr("empty live document", nil)
	}
	var doc jsonLive
	if err := sonic.Unmarshal(payload, &doc); err != nil {
		return nil, parseErr("live json", err)
	}

	out := make([]record.LiveMatch, 0)
	for _, cat := range doc.Scores.Category {
		name := firstNonEmpty(cat.Name, cat.AtName)
		id := firstNonEmpty(scalarString(cat.ID), scalarString(cat.AtID))
		matches := append([]jsonObject{}, cat.Match...)
		matches = append(matches, cat.Matches.Match...)
		for _, obj := range matches {
			node := jsonMatchNode(obj)
			node.category = strings.TrimSpace(name)
			node.catID = strings.TrimSpace(id)
			out = append(out, node.project(record.KindJSONLive))
		}
	}
	return out, nil
}

func jsonMatchNode(obj jsonObject) matchNode {
	node := matchNode{
		attrs:   scalarAttrs(obj),
		local:   scalarAttrs(childObject(obj, "localteam")),
		visitor: scalarAttrs(childObject(obj, "visitorteam")),
		ht:      periodScore(obj, "ht"),
		ft:      periodScore(obj, "ft"),
		et:      periodScore(obj, "et"),
	}
	for _, name := range []string{"ht", "ft", "et"} {
		node.addPeriod(name, scalarAttrs(childObject(obj, name)))
	}
	if _, ok := node.attrs["live_stats"]; !ok {
		if raw, ok := lookup(obj, "live_stats"); ok && raw != nil {
			if encoded, err := sonic.MarshalString(raw); err == nil {
				node.attrs["live_stats"] = encoded
			}
		}
	}
	if events := childObject(obj, "events"); events != nil {
		for _, ev := range objects(events["event"]) {
			node.events = append(node.events, scalarAttrs(ev))
		}
	}
	if innings, ok := lookup(obj, "innings"); ok {
		for _, inn := range objects(innings) {
			node.innings = append(node.innings, scalarAttrs(inn))
		}
	}
	return node
}

func lookup(obj jsonObject, key string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	if v, ok := obj[key]; ok {
		return v, true
	}
	v, ok := obj["@"+key]
	return v, ok
}

func childObject(obj jsonObject, key string) jsonObject {
	v, _ := lookup(obj, key)
	child, _ := v.(map[string]any)
	return child
}

func objects(v any) []jsonObject {
	switch typed := v.(type) {
	case map[string]any:
		return []jsonObject{typed}
	case []any:
		out := make([]jsonObject, 0, len(typed))
		for _, item := range typed {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}

func periodScore(obj jsonObject, key string) *string {
	child := childObject(obj, key)
	if child == nil {
		return nil
	}
	v, ok := lookup(child, "score")
	if !ok || v == nil {
		return nil
	}
	s := scalarString(v)
	return &s
}

// scalarAttrs keeps the scalar members of obj as strings with the "@"
// prefix dropped.
func scalarAttrs(obj jsonObject) map[string]string {
	out := make(map[string]string, len(obj))
	for key, v := range obj {
		switch v.(type) {
		case map[string]any, []any, nil:
			continue
		}
		out[strings.TrimPrefix(key, "@")] = scalarString(v)
	}
	return out
}

func scalarString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		encoded, err := sonic.MarshalString(typed)
		if err != nil {
			return ""
		}
		return encoded
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

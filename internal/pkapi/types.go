package pkapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// System is a named collection of member profiles.
type System struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Members     []Member `json:"members,omitempty"`
}

// Member is an individual profile belonging to a System.
type Member struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Pronouns    string `json:"pronouns,omitempty"`
	Birthday    string `json:"birthday,omitempty"`
	Color       string `json:"color,omitempty"`
}

// wireSystem mirrors the API payload. Optional fields are pointers so
// that JSON null decodes cleanly; members stay raw until validated.
type wireSystem struct {
	ID          *string         `json:"id"`
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Tag         *string         `json:"tag"`
	AvatarURL   *string         `json:"avatar_url"`
	Members     json.RawMessage `json:"members"`
}

type wireMember struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	AvatarURL   *string `json:"avatar_url"`
	Pronouns    *string `json:"pronouns"`
	Birthday    *string `json:"birthday"`
	Color       *string `json:"color"`
}

var errNotObject = errors.New("expected a JSON object")

// DecodeSystem maps an untyped system payload onto System. An embedded
// "members" array is decoded when present.
func DecodeSystem(op string, raw json.RawMessage) (*System, error) {
	if !isKind(raw, '{') {
		return nil, &SchemaError{Op: op, Err: errNotObject}
	}
	var w wireSystem
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, schemaErr(op, "", err)
	}
	if w.ID == nil || *w.ID == "" {
		return nil, &SchemaError{Op: op, Field: "id", Err: errors.New("missing system id")}
	}

	s := &System{
		ID:          *w.ID,
		Name:        deref(w.Name),
		Description: deref(w.Description),
		Tag:         deref(w.Tag),
		AvatarURL:   deref(w.AvatarURL),
	}
	if len(w.Members) > 0 && !bytes.Equal(bytes.TrimSpace(w.Members), []byte("null")) {
		members, err := DecodeMembers(op, w.Members)
		if err != nil {
			return nil, err
		}
		s.Members = members
	}
	return s, nil
}

// DecodeMembers maps an untyped member array onto []Member.
func DecodeMembers(op string, raw json.RawMessage) ([]Member, error) {
	if !isKind(raw, '[') {
		return nil, &SchemaError{Op: op, Field: "members", Err: errors.New("expected a JSON array")}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, schemaErr(op, "members", err)
	}

	members := make([]Member, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("members[%d]", i)
		if !isKind(item, '{') {
			return nil, &SchemaError{Op: op, Field: field, Err: errNotObject}
		}
		var w wireMember
		if err := json.Unmarshal(item, &w); err != nil {
			return nil, schemaErr(op, field, err)
		}
		if w.ID == nil || *w.ID == "" {
			return nil, &SchemaError{Op: op, Field: field + ".id", Err: errors.New("missing member id")}
		}
		members = append(members, Member{
			ID:          *w.ID,
			Name:        deref(w.Name),
			Description: deref(w.Description),
			AvatarURL:   deref(w.AvatarURL),
			Pronouns:    deref(w.Pronouns),
			Birthday:    deref(w.Birthday),
			Color:       deref(w.Color),
		})
	}
	return members, nil
}

func schemaErr(op, field string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if field != "" {
			field += "."
		}
		field += typeErr.Field
	}
	return &SchemaError{Op: op, Field: field, Err: err}
}

// isKind reports whether the first non-space byte of raw is c.
func isKind(raw json.RawMessage, c byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// The backend's JSON is produced by an LLM and drifts: lists arrive as single
// strings, difficulty as a number, and so on. The decoders below coerce what
// they can and leave the rest at zero values instead of failing the result.

var errNotObject = errors.New("analysis result is not a JSON object")

type fields map[string]json.RawMessage

func objectFields(data []byte) (fields, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	return f, true
}

func (f fields) text(key string) string { return text(f[key]) }

func (f fields) texts(key string) []string { return texts(f[key]) }

// text reads a scalar as a string. Numbers and booleans keep their literal
// form, arrays of scalars are joined, objects and null are empty.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	case '[':
		return strings.Join(texts(raw), ", ")
	case '{', 'n':
		return ""
	}
	return string(raw)
}

// texts reads a list of strings. A lone scalar becomes a one-element list.
func texts(raw json.RawMessage) []string {
	items, isArray := rawItems(raw)
	if !isArray {
		if s := text(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] == '{' || item[0] == '[' || item[0] == 'n' {
			continue
		}
		out = append(out, text(item))
	}
	return out
}

// rawItems splits an array into its elements. Anything else is returned as a
// single element with isArray false; null and missing values give nothing.
func rawItems(raw json.RawMessage) (items []json.RawMessage, isArray bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	if raw[0] != '[' {
		return []json.RawMessage{raw}, false
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true
	}
	return items, true
}

// decodeList decodes each element on its own so one bad item does not drop
// the others. A JSON array always yields a non-nil slice.
func decodeList[T any](raw json.RawMessage) []T {
	items, isArray := rawItems(raw)
	if items == nil && !isArray {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if json.Unmarshal(item, &v) == nil {
			out = append(out, v)
		}
	}
	return out
}

func (r *Result) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	f, ok := objectFields(data)
	if !ok {
		return errNotObject
	}
	*r = Result{
		RepoName:      f.text("repo_name"),
		RepoOwner:     f.text("repo_owner"),
		ResumeBullets: decodeList[ResumeBullet](f["resume_bullets"]),
		VivaQuestions: decodeList[VivaQuestion](f["viva_questions"]),
		InterviewQA:   decodeList[InterviewQA](f["interview_qa"]),
	}
	if raw, ok := f["explanation"]; ok {
		_ = json.Unmarshal(raw, &r.Explanation)
	}
	return nil
}

// UnmarshalJSON accepts the full object or a bare string taken as the overview.
func (e *Explanation) UnmarshalJSON(data []byte) error {
	f, ok := objectFields(data)
	if !ok {
		*e = Explanation{Overview: text(data)}
		return nil
	}
	*e = Explanation{
		Overview:         f.text("overview"),
		KeyFeatures:      f.texts("key_features"),
		TechStack:        f.texts("tech_stack"),
		Architecture:     f.text("architecture"),
		ChallengesSolved: f.texts("challenges_solved"),
		Impact:           f.text("impact"),
	}
	return nil
}

func (b *ResumeBullet) UnmarshalJSON(data []byte) error {
	if f, ok := objectFields(data); ok {
		b.Point = f.text("point")
	} else {
		b.Point = text(data)
	}
	return nil
}

func (q *VivaQuestion) UnmarshalJSON(data []byte) error {
	f, ok := objectFields(data)
	if !ok {
		*q = VivaQuestion{Question: text(data)}
		return nil
	}
	*q = VivaQuestion{Question: f.text("question"), Answer: f.text("answer"), Difficulty: f.text("difficulty")}
	return nil
}

func (q *InterviewQA) UnmarshalJSON(data []byte) error {
	f, ok := objectFields(data)
	if !ok {
		*q = InterviewQA{Question: text(data)}
		return nil
	}
	*q = InterviewQA{Question: f.text("question"), Answer: f.text("answer"), Category: f.text("category")}
	return nil
}

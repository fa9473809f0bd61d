package interpreter

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/domain"
)

const fence = "```"

// ParseReply recovers an Interpretation from a raw Messages API reply body.
// The category is passed through unvalidated.
func ParseReply(body []byte) (domain.Interpretation, error) {
	if !gjson.ValidBytes(body) {
		return domain.Interpretation{}, malformed("reply is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return domain.Interpretation{}, malformed("reply is not a JSON object")
	}

	text, err := firstText(doc)
	if err != nil {
		return domain.Interpretation{}, err
	}

	return parseText(text)
}

func firstText(doc gjson.Result) (string, error) {
	blocks := doc.Get("content")
	if !blocks.IsArray() || len(blocks.Array()) == 0 {
		return "", domain.NewStageError(domain.StageInterpret, domain.KindNoContent, "reply has no content blocks")
	}

	block := blocks.Array()[0]
	textField := block.Get("text")
	if !block.IsObject() || textField.Type != gjson.String {
		return "", domain.NewStageError(domain.StageInterpret, domain.KindNoContent, "first content block has no text")
	}

	text := strings.TrimSpace(textField.String())
	if text == "" {
		return "", domain.NewStageError(domain.StageInterpret, domain.KindNoContent, "empty text block")
	}
	return text, nil
}

func parseText(text string) (domain.Interpretation, error) {
	candidate := extractObject(stripFence(text))

	if !gjson.Valid(candidate) {
		return domain.Interpretation{}, malformed("text does not contain a JSON object")
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return domain.Interpretation{}, malformed("text does not contain a JSON object")
	}

	category := string(domain.CategoryByTerm)
	if v := lastField(obj, "category"); v.Exists() {
		category = v.String()
	} else if v := lastField(obj, "search_type"); v.Exists() {
		category = v.String()
	}

	query := stringField(obj, "query")
	if strings.TrimSpace(query) == "" {
		return domain.Interpretation{}, domain.NewStageError(domain.StageInterpret, domain.KindMissingQuery, "")
	}

	return domain.NewInterpretation(category, strings.TrimSpace(query), stringField(obj, "explanation")), nil
}

// stripFence removes a leading markdown fence and keeps only the content
// of the first fenced block. A closer counts only at the start of a line
// or at the very end of the text.
func stripFence(text string) string {
	if !strings.HasPrefix(text, fence) {
		return text
	}
	rest := strings.TrimPrefix(text, fence)

	// Language tag runs up to the first whitespace.
	if i := strings.IndexAny(rest, " \t\r\n"); i >= 0 {
		if !strings.ContainsAny(rest[:i], "{}"+fence[:1]) {
			rest = rest[i:]
		}
	} else if !strings.ContainsAny(rest, "{}"+fence[:1]) {
		rest = ""
	}

	if end := strings.Index(rest, "\n"+fence); end >= 0 {
		rest = rest[:end]
	} else {
		rest = strings.TrimSuffix(strings.TrimSpace(rest), fence)
	}
	return strings.TrimSpace(rest)
}

// extractObject slices text to the span between the first '{' and the
// last '}' when both are present in that order.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// lastField returns the last value stored under key, matching how
// encoding/json resolves duplicate keys.
func lastField(obj gjson.Result, key string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
		}
		return true
	})
	return found
}

func stringField(obj gjson.Result, key string) string {
	v := lastField(obj, key)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

func malformed(msg string) *domain.StageError {
	return domain.NewStageError(domain.StageInterpret, domain.KindMalformedReply, msg)
}

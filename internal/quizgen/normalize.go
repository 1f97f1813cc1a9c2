package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abhisek/quizgate/internal/quiz"
)

// normalize flattens the nested {"subtopic": {"q1": "..."}} reply into
// questions ordered by requested subtopic, then by position in the reply.
// encoding/json maps lose key order, so the reply is walked with gjson.
//
// A requested subtopic is looked up by exact key first, then by a
// case-insensitive, trimmed match. Keys that match no requested subtopic
// are returned as ignored.
func normalize(content json.RawMessage, subtopics []string, perSubtopic int) (questions []quiz.Question, ignored []string, err error) {
	if !gjson.ValidBytes(content) {
		return nil, nil, quiz.Malformed(quiz.RoleComposer, content, "reply is not valid JSON")
	}
	root := gjson.ParseBytes(content)
	if !root.IsObject() {
		return nil, nil, quiz.Malformed(quiz.RoleComposer, content, "reply is not a JSON object")
	}

	exact := make(map[string]gjson.Result)
	folded := make(map[string]gjson.Result)
	var order []string
	root.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, dup := exact[k]; dup {
			return true
		}
		exact[k] = value
		order = append(order, k)
		f := fold(k)
		if _, dup := folded[f]; !dup {
			folded[f] = value
		}
		return true
	})

	requested := make(map[string]bool, len(subtopics))
	for _, s := range subtopics {
		requested[fold(s)] = true
	}
	for _, k := range order {
		if !requested[fold(k)] {
			ignored = append(ignored, k)
		}
	}

	questions = make([]quiz.Question, 0, len(subtopics)*perSubtopic)
	for _, s := range subtopics {
		group, ok := exact[s]
		if !ok {
			group, ok = folded[fold(s)]
		}
		if !ok {
			return nil, nil, quiz.Malformed(quiz.RoleComposer, content, "missing subtopic %q", s)
		}
		texts, err := questionTexts(group, perSubtopic)
		if err != nil {
			return nil, nil, quiz.Malformed(quiz.RoleComposer, content, "subtopic %q: %v", s, err)
		}
		for _, text := range texts {
			questions = append(questions, quiz.Question{Subtopic: s, Text: text})
		}
	}
	return questions, ignored, nil
}

// questionTexts returns the first n questions of one subtopic group.
func questionTexts(group gjson.Result, n int) ([]string, error) {
	if !group.IsObject() {
		return nil, errors.New("questions are not an object")
	}

	var texts []string
	var err error
	group.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("question %s is not a string", key.String())
			return false
		}
		text := strings.TrimSpace(value.String())
		if text == "" {
			err = fmt.Errorf("question %s is blank", key.String())
			return false
		}
		texts = append(texts, text)
		return len(texts) < n
	})
	if err != nil {
		return nil, err
	}
	if len(texts) < n {
		return nil, fmt.Errorf("got %d questions, want %d", len(texts), n)
	}
	return texts, nil
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

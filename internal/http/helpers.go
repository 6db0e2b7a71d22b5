package http

import (
	"bytes"
	"html/template"
	"strings"

	"finsheet/internal/taxonomy"
	"finsheet/internal/ui"
)

var templateFuncs = template.FuncMap{
	"suggestionLabel": suggestionLabel,
}

// suggestionLabel labels a datalist option with its folded spelling so the
// browser's own filter keeps it when the user types without accents. Names
// without accents need no label.
func suggestionLabel(category string) string {
	folded := taxonomy.Fold(category)
	if folded == strings.ToLower(category) {
		return ""
	}
	return category + " (" + folded + ")"
}

func executeTemplate(t *template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sessionKey scopes a page instance to its sheet so one browser tab can not
// act on another sheet's controller.
func sessionKey(configID, sid string) string {
	return configID + "|" + sid
}

// notify copies the last notification a controller recorded onto the
// response as a show-notification trigger.
func notify(b *HTMXResponseBuilder, rec *ui.Recorder) *HTMXResponseBuilder {
	ev, ok := rec.Last()
	if !ok {
		return b
	}
	if ev.Kind == ui.EventFailure {
		return b.TriggerErrorNotification(ev.Message)
	}
	return b.TriggerSuccessNotification(ev.Message)
}
